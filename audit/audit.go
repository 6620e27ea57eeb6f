// Package audit counts the administrators of each visible Tag Manager account
// and flags the accounts with too few or too many of them.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/uhppoted/gtm-admin-audit/gtm"
	"github.com/uhppoted/gtm-admin-audit/log"
)

const ADMIN_URL = "https://tagmanager.google.com/#/admin/?accountId=%v"

// Directory is the subset of the Tag Manager API used by the audit.
type Directory interface {
	Accounts(ctx context.Context) ([]gtm.Account, error)
	Permissions(ctx context.Context, accountID string) ([]gtm.Permission, error)
}

type Thresholds struct {
	MinAdmins int
	MaxAdmins int
}

// Flagged returns true if an account with the given number of admins should be
// reported, i.e. it has exactly MinAdmins admins or more than MaxAdmins. An
// account with no admins at all is not flagged unless MinAdmins is 0.
func (t Thresholds) Flagged(admins int) bool {
	return admins == t.MinAdmins || admins > t.MaxAdmins
}

func (t Thresholds) String() string {
	return fmt.Sprintf("min:%v max:%v", t.MinAdmins, t.MaxAdmins)
}

type FlaggedRow struct {
	AccountName string
	AccountID   string
	Admins      int
	Link        string
}

type Result struct {
	Accounts int
	Rows     []FlaggedRow
}

// Failure aborts an audit run. It records the account being audited when the
// error occurred along with the rows flagged up to that point. The partial rows
// are informational only and are never reported.
type Failure struct {
	Account gtm.Account
	Partial []FlaggedRow
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("audit of account %v failed (%v)", f.Account, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Auditor struct {
	Directory  Directory
	Thresholds Thresholds
	Throttle   Throttle
}

func NewAuditor(directory Directory, thresholds Thresholds, delay time.Duration) *Auditor {
	return &Auditor{
		Directory:  directory,
		Thresholds: thresholds,
		Throttle:   NewDelay(delay),
	}
}

// Run audits every account visible to the directory, one at a time, pausing
// between accounts. The first error aborts the run.
func (a *Auditor) Run(ctx context.Context) (*Result, error) {
	log.Infof("Starting GTM admin audit (%v)", a.Thresholds)

	accounts, err := a.Directory.Accounts(ctx)
	if err != nil {
		log.Errorf("Error retrieving GTM accounts (%v)", err)
		return nil, err
	}

	log.Infof("Found %v GTM accounts", len(accounts))

	result := Result{
		Accounts: len(accounts),
		Rows:     []FlaggedRow{},
	}

	for i, account := range accounts {
		log.Infof("Processing account %v of %v: %v", i+1, len(accounts), account)

		admins, err := CountAdmins(ctx, a.Directory, account.ID)
		if err != nil {
			log.Errorf("Error retrieving permissions for account %v (%v)", account, err)

			return nil, &Failure{
				Account: account,
				Partial: result.Rows,
				Err:     err,
			}
		}

		log.Infof("Account %v has %v admin(s)", account, admins)

		if a.Thresholds.Flagged(admins) {
			log.Infof("Account %v qualifies for the report", account)

			result.Rows = append(result.Rows, FlaggedRow{
				AccountName: account.Name,
				AccountID:   account.ID,
				Admins:      admins,
				Link:        AdminLink(account.ID),
			})
		} else {
			log.Debugf("Account %v does not qualify for the report", account)
		}

		if i < len(accounts)-1 && a.Throttle != nil {
			if err := a.Throttle.Wait(ctx); err != nil {
				return nil, &Failure{
					Account: account,
					Partial: result.Rows,
					Err:     err,
				}
			}
		}
	}

	log.Infof("Audit complete: %v of %v accounts flagged", len(result.Rows), len(accounts))

	return &result, nil
}

// CountAdmins returns the number of users with account level 'admin' access.
func CountAdmins(ctx context.Context, directory Directory, accountID string) (int, error) {
	permissions, err := directory.Permissions(ctx, accountID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range permissions {
		if p.IsAdmin() {
			count++
		}
	}

	return count, nil
}

// AdminLink returns a spreadsheet formula for a link to the account's admin page.
func AdminLink(accountID string) string {
	url := fmt.Sprintf(ADMIN_URL, accountID)

	return fmt.Sprintf(`=HYPERLINK("%v", "Open in GTM")`, url)
}
