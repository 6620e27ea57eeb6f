package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/gtm-admin-audit/config"
	"github.com/uhppoted/gtm-admin-audit/gtm"
	"github.com/uhppoted/gtm-admin-audit/report"
)

type directory struct {
	accounts    []gtm.Account
	permissions map[string][]gtm.Permission
	failures    map[string]error
}

func (d *directory) Accounts(ctx context.Context) ([]gtm.Account, error) {
	return d.accounts, nil
}

func (d *directory) Permissions(ctx context.Context, accountID string) ([]gtm.Permission, error) {
	if err := d.failures[accountID]; err != nil {
		return nil, err
	}

	return d.permissions[accountID], nil
}

func newDirectory(counts ...int) *directory {
	d := directory{
		accounts:    []gtm.Account{},
		permissions: map[string][]gtm.Permission{},
		failures:    map[string]error{},
	}

	for i, n := range counts {
		id := fmt.Sprintf("%v", 6001+i)
		d.accounts = append(d.accounts, gtm.Account{ID: id, Name: fmt.Sprintf("Account #%v", i+1)})
		d.permissions[id] = []gtm.Permission{{Access: "user"}}

		for j := 0; j < n; j++ {
			d.permissions[id] = append(d.permissions[id], gtm.Permission{Access: "admin"})
		}
	}

	return &d
}

type spreadsheets struct {
	titles []string
	rows   map[string][][]any
}

func (s *spreadsheets) Open(ctx context.Context, id string) (*report.Spreadsheet, error) {
	return &report.Spreadsheet{ID: id, Sheets: s.titles}, nil
}

func (s *spreadsheets) AddSheet(ctx context.Context, spreadsheetID string, title string) (int64, error) {
	s.titles = append(s.titles, title)
	return 77, nil
}

func (s *spreadsheets) Write(ctx context.Context, spreadsheetID string, title string, rows [][]any) error {
	s.rows[title] = rows
	return nil
}

func (s *spreadsheets) Format(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error {
	return nil
}

type mail struct {
	subject string
	body    string
}

type mailer struct {
	sent []mail
}

func (m *mailer) Send(ctx context.Context, to []string, subject string, body string) error {
	m.sent = append(m.sent, mail{subject, body})
	return nil
}

const LOG_URL = "https://console.cloud.google.com/logs/query"

func conf(sheetID string) *config.Config {
	return &config.Config{
		Delay:      0,
		MinAdmins:  1,
		MaxAdmins:  3,
		SheetID:    sheetID,
		Recipients: []string{"security@example.com"},
		TimeZone:   time.UTC,
		LogURL:     LOG_URL,
	}
}

func TestRunScenarioA(t *testing.T) {
	d := newDirectory(1, 2, 5)
	s := spreadsheets{rows: map[string][][]any{}}
	m := mailer{}

	err := run(context.Background(), conf("abc"), d, &s, &m)

	require.NoError(t, err)
	require.Len(t, s.titles, 1)

	rows := s.rows[s.titles[0]]
	require.Len(t, rows, 3)
	assert.Equal(t, "Account #1", rows[1][0])
	assert.Equal(t, 1, rows[1][2])
	assert.Equal(t, "Account #3", rows[2][0])
	assert.Equal(t, 5, rows[2][2])

	require.Len(t, m.sent, 1)
	assert.Equal(t, "GTM Admin Audit: 2 flagged accounts", m.sent[0].subject)
	assert.Contains(t, m.sent[0].body, "https://docs.google.com/spreadsheets/d/abc/edit#gid=77")
	assert.NotContains(t, m.sent[0].body, LOG_URL)
}

func TestRunScenarioB(t *testing.T) {
	d := newDirectory(2, 3)
	s := spreadsheets{rows: map[string][][]any{}}
	m := mailer{}

	err := run(context.Background(), conf("abc"), d, &s, &m)

	require.NoError(t, err)
	assert.Empty(t, s.titles, "expected export to be skipped")

	require.Len(t, m.sent, 1)
	assert.Equal(t, "GTM Admin Audit: 0 flagged accounts", m.sent[0].subject)
	assert.Contains(t, m.sent[0].body, LOG_URL)
}

func TestRunScenarioC(t *testing.T) {
	d := newDirectory(1)
	m := mailer{}

	err := run(context.Background(), conf(""), d, nil, &m)

	require.NoError(t, err)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "GTM Admin Audit: 1 flagged account", m.sent[0].subject)
	assert.Contains(t, m.sent[0].body, LOG_URL)
	assert.NotContains(t, m.sent[0].body, "docs.google.com/spreadsheets")
}

func TestRunScenarioD(t *testing.T) {
	d := newDirectory(1, 2, 5)
	d.failures["6002"] = errors.New("quota exceeded")

	s := spreadsheets{rows: map[string][][]any{}}
	m := mailer{}

	err := run(context.Background(), conf("abc"), d, &s, &m)

	assert.ErrorIs(t, err, d.failures["6002"])
	assert.Empty(t, s.titles)
	assert.Empty(t, m.sent)
}

func TestConfiguration(t *testing.T) {
	cmd := Audit{
		config:    "",
		maxAdmins: "5",
		sheetID:   "https://docs.google.com/spreadsheets/d/xyz/edit",
	}

	env := map[string]string{
		"MAX_ADMINS":       "4",
		"EMAIL_RECIPIENTS": "security@example.com,ops@example.com",
		"DELAY_MS":         "250",
	}

	c, err := cmd.configuration(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.Delay)
	assert.Equal(t, 1, c.MinAdmins)
	assert.Equal(t, 5, c.MaxAdmins, "expected command line to override environment")
	assert.Equal(t, "xyz", c.SheetID)
	assert.Equal(t, []string{"security@example.com", "ops@example.com"}, c.Recipients)
}

func TestConfigurationWithoutRecipients(t *testing.T) {
	cmd := Audit{}

	_, err := cmd.configuration(func(k string) (string, bool) { return "", false })

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "recipient"))
}
