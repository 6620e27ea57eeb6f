package commands

const (
	_etc = "/usr/local/etc/gtm-admin-audit"
	_var = "/usr/local/var/gtm-admin-audit"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CONFIG      = _etc + "/audit.yaml"
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
