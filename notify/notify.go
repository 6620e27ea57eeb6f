// Package notify sends the audit summary email.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/uhppoted/gtm-admin-audit/audit"
	"github.com/uhppoted/gtm-admin-audit/log"
)

const SUBJECT = "GTM Admin Audit: %v"

type Mailer interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

type Notifier struct {
	Mailer     Mailer
	Recipients []string
	Thresholds audit.Thresholds
	LogURL     string
}

// Notify sends the summary for a completed audit. The email links to the exported
// worksheet if there is one, otherwise to the execution log. A failure to send
// is returned to the caller.
func (n *Notifier) Notify(ctx context.Context, flagged int, sheetURL string) error {
	if len(n.Recipients) == 0 {
		err := fmt.Errorf("no email recipients")
		log.Errorf("Error sending audit summary (%v)", err)
		return err
	}

	subject := Subject(flagged)
	body := n.Body(flagged, sheetURL)

	if err := n.Mailer.Send(ctx, n.Recipients, subject, body); err != nil {
		log.Errorf("Error sending audit summary to %v (%v)", strings.Join(n.Recipients, ","), err)
		return fmt.Errorf("error sending audit summary (%w)", err)
	}

	log.Infof("Sent audit summary to %v", strings.Join(n.Recipients, ","))

	return nil
}

func Subject(flagged int) string {
	return fmt.Sprintf(SUBJECT, Flagged(flagged))
}

func (n *Notifier) Body(flagged int, sheetURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The GTM admin audit found %v.\n", Flagged(flagged))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Accounts are flagged if they have exactly %v or more than %v.\n",
		plural(n.Thresholds.MinAdmins, "admin", "admins"),
		plural(n.Thresholds.MaxAdmins, "admin", "admins"))
	fmt.Fprintln(&b)

	switch {
	case sheetURL != "":
		fmt.Fprintln(&b, "The flagged accounts have been exported to:")
		fmt.Fprintln(&b, sheetURL)

	case n.LogURL != "":
		fmt.Fprintln(&b, "See the execution log for details:")
		fmt.Fprintln(&b, n.LogURL)

	default:
		fmt.Fprintln(&b, "See the execution log on the host that ran the audit for details.")
	}

	return b.String()
}

// Flagged returns e.g. '0 flagged accounts', '1 flagged account', '2 flagged accounts'.
func Flagged(count int) string {
	return plural(count, "flagged account", "flagged accounts")
}

func plural(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%v %v", count, singular)
	}

	return fmt.Sprintf("%v %v", count, plural)
}
