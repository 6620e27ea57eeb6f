package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"google.golang.org/api/option"

	"github.com/uhppoted/gtm-admin-audit/audit"
	"github.com/uhppoted/gtm-admin-audit/auth"
	"github.com/uhppoted/gtm-admin-audit/config"
	"github.com/uhppoted/gtm-admin-audit/gtm"
	"github.com/uhppoted/gtm-admin-audit/log"
	"github.com/uhppoted/gtm-admin-audit/notify"
	"github.com/uhppoted/gtm-admin-audit/report"
)

var AuditCmd = Audit{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		debug:       false,
	},

	config: DEFAULT_CONFIG,
}

type Audit struct {
	command
	config     string
	delay      string
	minAdmins  string
	maxAdmins  string
	sheetID    string
	recipients string
	sender     string
	timezone   string
	logURL     string
	logFile    string
}

func (cmd *Audit) Name() string {
	return "audit"
}

func (cmd *Audit) Description() string {
	return "Audits the number of administrators of each accessible Google Tag Manager account"
}

func (cmd *Audit) Usage() string {
	return "[--config <file>] [--sheet-id <spreadsheet>] [--recipients <emails>]"
}

func (cmd *Audit) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] audit [options]\n", APP)
	fmt.Println()
	fmt.Println("  Counts the administrators of each Google Tag Manager account accessible to the authorised")
	fmt.Println("  user, writes the accounts with exactly 'min-admins' or more than 'max-admins' administrators")
	fmt.Println("  to a new timestamped worksheet and emails a summary to the recipients.")
	fmt.Println()
	fmt.Println("  Options override the configuration file, which in turn is overridden by the DELAY_MS,")
	fmt.Println("  MIN_ADMINS, MAX_ADMINS, SHEET_ID, EMAIL_RECIPIENTS, EMAIL_SENDER, TIME_ZONE, LOG_URL")
	fmt.Println("  and LOG_FILE environment variables.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gtm-admin-audit audit --credentials "credentials.json" \`)
	fmt.Println(`                          --sheet-id "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                          --recipients "security@example.com,ops@example.com"`)
	fmt.Println()
	fmt.Println(`    gtm-admin-audit --debug audit --config audit.yaml --max-admins 5`)
	fmt.Println()
}

func (cmd *Audit) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("audit")

	flagset.StringVar(&cmd.config, "config", cmd.config, "Audit configuration file")
	flagset.StringVar(&cmd.delay, "delay", cmd.delay, "Pause between accounts, in milliseconds or as a duration e.g. 2100 or 2.1s")
	flagset.StringVar(&cmd.minAdmins, "min-admins", cmd.minAdmins, "Flags accounts with exactly this number of admins")
	flagset.StringVar(&cmd.maxAdmins, "max-admins", cmd.maxAdmins, "Flags accounts with more than this number of admins")
	flagset.StringVar(&cmd.sheetID, "sheet-id", cmd.sheetID, "Spreadsheet ID or URL for the report. The report is skipped if not set")
	flagset.StringVar(&cmd.recipients, "recipients", cmd.recipients, "Comma separated list of email addresses for the summary")
	flagset.StringVar(&cmd.sender, "sender", cmd.sender, "'From' address for the summary email")
	flagset.StringVar(&cmd.timezone, "time-zone", cmd.timezone, "Time zone for the report worksheet name e.g. Europe/London")
	flagset.StringVar(&cmd.logURL, "log-url", cmd.logURL, "Execution log URL included in the summary when there is no report")
	flagset.StringVar(&cmd.logFile, "log-file", cmd.logFile, "Appends the execution log to this file")

	return flagset
}

func (cmd *Audit) Execute(args ...any) error {
	if len(args) > 0 {
		if options, ok := args[0].(*Options); ok {
			cmd.debug = options.Debug
			if options.Config != "" {
				cmd.config = options.Config
			}
		}
	}

	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	conf, err := cmd.configuration(os.LookupEnv)
	if err != nil {
		return err
	}

	if err := log.Init(cmd.debug, conf.LogFile); err != nil {
		return err
	}

	defer log.Close()

	if cmd.debug {
		log.Debugf("Configuration - delay:%v  min-admins:%v  max-admins:%v  sheet:%q  recipients:%v  time-zone:%v",
			conf.Delay, conf.MinAdmins, conf.MaxAdmins, conf.SheetID, conf.Recipients, conf.TimeZone)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client, err := auth.Client(ctx, cmd.credentials, cmd.tokenFile(), SCOPES...)
	if err != nil {
		log.Errorf("Authentication/authorization error (%v)", err)
		return fmt.Errorf("authentication/authorization error (%w)", err)
	}

	directory, err := gtm.NewClient(ctx, option.WithHTTPClient(client))
	if err != nil {
		return err
	}

	var spreadsheets report.Spreadsheets
	if conf.SheetID != "" {
		if google, err := report.NewGoogle(ctx, option.WithHTTPClient(client)); err != nil {
			log.Warnf("%v", err)
		} else {
			spreadsheets = google
		}
	}

	mailer, err := notify.NewGmail(ctx, conf.Sender, option.WithHTTPClient(client))
	if err != nil {
		return err
	}

	return run(ctx, conf, directory, spreadsheets, mailer)
}

// configuration resolves the defaults, configuration file, environment and
// command line options (in that order).
func (cmd *Audit) configuration(lookup func(string) (string, bool)) (*config.Config, error) {
	settings := config.Default()

	if cmd.config != "" {
		if err := settings.LoadFile(cmd.config, cmd.config == DEFAULT_CONFIG); err != nil {
			return nil, err
		}
	}

	settings.LoadEnv(lookup)

	overrides := map[*string]string{
		&settings.Delay:      cmd.delay,
		&settings.MinAdmins:  cmd.minAdmins,
		&settings.MaxAdmins:  cmd.maxAdmins,
		&settings.SheetID:    cmd.sheetID,
		&settings.Recipients: cmd.recipients,
		&settings.Sender:     cmd.sender,
		&settings.TimeZone:   cmd.timezone,
		&settings.LogURL:     cmd.logURL,
		&settings.LogFile:    cmd.logFile,
	}

	for field, v := range overrides {
		if v = strings.TrimSpace(v); v != "" {
			*field = v
		}
	}

	return settings.Resolve()
}

// run audits the accounts, exports the flagged accounts and sends the summary.
// An audit or notification failure aborts the run, an export failure does not.
func run(ctx context.Context, conf *config.Config, directory audit.Directory, spreadsheets report.Spreadsheets, mailer notify.Mailer) error {
	thresholds := audit.Thresholds{
		MinAdmins: conf.MinAdmins,
		MaxAdmins: conf.MaxAdmins,
	}

	auditor := audit.NewAuditor(directory, thresholds, conf.Delay)

	result, err := auditor.Run(ctx)
	if err != nil {
		return err
	}

	exporter := report.NewExporter(spreadsheets, conf.TimeZone)
	url := ""

	if sheet := exporter.Export(ctx, conf.SheetID, result.Rows); sheet != nil {
		url = sheet.URL
	}

	notifier := notify.Notifier{
		Mailer:     mailer,
		Recipients: conf.Recipients,
		Thresholds: thresholds,
		LogURL:     conf.ExecutionLog(),
	}

	if err := notifier.Notify(ctx, len(result.Rows), url); err != nil {
		return err
	}

	log.Infof("GTM admin audit complete")

	return nil
}
