package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/uhppoted/gtm-admin-audit/auth"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		debug:       false,
	},

	port: 0,
}

type Authorise struct {
	command
	port int
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises gtm-admin-audit to access Google Tag Manager, Google Sheets and Gmail"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options] --credentials <file>\n", APP)
	fmt.Println()
	fmt.Println("  Authorises gtm-admin-audit to list GTM accounts and user permissions, write report worksheets")
	fmt.Println("  and send the summary email. The OAuth2 token is saved to the workdir for use by the 'audit'")
	fmt.Println("  command. Not required if the credentials file is a service account key.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    gtm-admin-audit authorise --credentials "credentials.json"`)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	flagset.IntVar(&cmd.port, "port", cmd.port, "Local port for the OAuth2 redirect. Defaults to any free port")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	if len(args) > 0 {
		if options, ok := args[0].(*Options); ok {
			cmd.debug = options.Debug
		}
	}

	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	tokens := cmd.tokenFile()

	if cmd.debug {
		fmt.Printf("DEBUG credentials:%v  tokens:%v\n", cmd.credentials, tokens)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := auth.Authorise(ctx, cmd.credentials, tokens, cmd.port, SCOPES...); err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	return nil
}
