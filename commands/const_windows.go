package commands

const (
	_etc = `C:\ProgramData\gtm-admin-audit`
	_var = `C:\ProgramData\gtm-admin-audit\var`

	DEFAULT_WORKDIR     = _var
	DEFAULT_CONFIG      = _etc + `\audit.yaml`
	DEFAULT_CREDENTIALS = _etc + `\.google\credentials.json`
)
