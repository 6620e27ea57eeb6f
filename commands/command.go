package commands

import (
	"flag"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/tagmanager/v2"

	"github.com/uhppoted/gtm-admin-audit/auth"
)

const APP = "gtm-admin-audit"

// SCOPES are the OAuth2 scopes required to list GTM accounts and user permissions,
// write the report worksheet and send the summary email.
var SCOPES = []string{
	tagmanager.TagmanagerReadonlyScope,
	tagmanager.TagmanagerManageUsersScope,
	sheets.SpreadsheetsScope,
	gmail.GmailSendScope,
}

type Options struct {
	Config string
	Debug  bool
}

// command holds the options common to the commands that use the Google APIs.
type command struct {
	workdir     string
	credentials string
	tokens      string
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (tokens, logs, etc)")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "OAuth2 tokens file. Defaults to <workdir>/.google/<credentials>.tokens")

	return flagset
}

func (c *command) tokenFile() string {
	if c.tokens != "" {
		return c.tokens
	}

	return auth.TokenFile(c.workdir, c.credentials)
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}
