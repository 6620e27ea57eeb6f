// Package config loads the audit configuration. Values are read from a YAML file,
// overridden by environment variables and then by command line flags, and are
// fixed for the duration of a run.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_DELAY      = 2100 * time.Millisecond
	DEFAULT_MIN_ADMINS = 1
	DEFAULT_MAX_ADMINS = 3
	DEFAULT_SENDER     = "me"
)

// Config is the resolved audit configuration.
type Config struct {
	Delay      time.Duration
	MinAdmins  int
	MaxAdmins  int
	SheetID    string
	Recipients []string
	Sender     string
	TimeZone   *time.Location
	LogURL     string
	LogFile    string
}

// File is the YAML configuration file layout. Fields that are not set in the
// file retain their defaults.
type File struct {
	Delay      Duration  `yaml:"delay"`
	MinAdmins  *int      `yaml:"min-admins"`
	MaxAdmins  *int      `yaml:"max-admins"`
	SheetID    string    `yaml:"sheet-id"`
	Recipients Addresses `yaml:"recipients"`
	Sender     string    `yaml:"sender"`
	TimeZone   string    `yaml:"time-zone"`
	LogURL     string    `yaml:"log-url"`
	LogFile    string    `yaml:"log-file"`
}

// Duration accepts either a Go duration ('2.1s') or an integer number of milliseconds.
type Duration struct {
	time.Duration
	set bool
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDelay(node.Value)
	if err != nil {
		return err
	}

	d.Duration = v
	d.set = true

	return nil
}

// Addresses accepts either a YAML list or a comma separated string.
type Addresses []string

func (a *Addresses) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = Recipients(node.Value)

	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}

		*a = Recipients(strings.Join(list, ","))

	default:
		return fmt.Errorf("invalid recipients - expected a list of email addresses")
	}

	return nil
}

// Settings are the unresolved configuration values, as strings, in the order
// they are overlaid.
type Settings struct {
	Delay      string
	MinAdmins  string
	MaxAdmins  string
	SheetID    string
	Recipients string
	Sender     string
	TimeZone   string
	LogURL     string
	LogFile    string
}

var ENV = map[string]func(s *Settings) *string{
	"DELAY_MS":         func(s *Settings) *string { return &s.Delay },
	"MIN_ADMINS":       func(s *Settings) *string { return &s.MinAdmins },
	"MAX_ADMINS":       func(s *Settings) *string { return &s.MaxAdmins },
	"SHEET_ID":         func(s *Settings) *string { return &s.SheetID },
	"EMAIL_RECIPIENTS": func(s *Settings) *string { return &s.Recipients },
	"EMAIL_SENDER":     func(s *Settings) *string { return &s.Sender },
	"TIME_ZONE":        func(s *Settings) *string { return &s.TimeZone },
	"LOG_URL":          func(s *Settings) *string { return &s.LogURL },
	"LOG_FILE":         func(s *Settings) *string { return &s.LogFile },
}

func Default() Settings {
	return Settings{
		Delay:     DEFAULT_DELAY.String(),
		MinAdmins: fmt.Sprintf("%v", DEFAULT_MIN_ADMINS),
		MaxAdmins: fmt.Sprintf("%v", DEFAULT_MAX_ADMINS),
		Sender:    DEFAULT_SENDER,
		TimeZone:  "Local",
	}
}

// LoadFile overlays the YAML configuration file onto the settings. A missing
// file is not an error if optional is true.
func (s *Settings) LoadFile(path string, optional bool) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("could not read configuration file %v (%w)", path, err)
	}

	var f File
	if err := yaml.Unmarshal(bytes, &f); err != nil {
		return fmt.Errorf("invalid configuration file %v (%w)", path, err)
	}

	if f.Delay.set {
		s.Delay = f.Delay.String()
	}

	if f.MinAdmins != nil {
		s.MinAdmins = fmt.Sprintf("%v", *f.MinAdmins)
	}

	if f.MaxAdmins != nil {
		s.MaxAdmins = fmt.Sprintf("%v", *f.MaxAdmins)
	}

	overlay(&s.SheetID, f.SheetID)
	if len(f.Recipients) > 0 {
		s.Recipients = strings.Join(f.Recipients, ",")
	}

	overlay(&s.Sender, f.Sender)
	overlay(&s.TimeZone, f.TimeZone)
	overlay(&s.LogURL, f.LogURL)
	overlay(&s.LogFile, f.LogFile)

	return nil
}

// LoadEnv overlays the environment variables onto the settings.
func (s *Settings) LoadEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for k, field := range ENV {
		if v, ok := lookup(k); ok {
			*field(s) = strings.TrimSpace(v)
		}
	}
}

// Resolve parses and validates the settings.
func (s Settings) Resolve() (*Config, error) {
	delay, err := ParseDelay(s.Delay)
	if err != nil {
		return nil, err
	}

	minAdmins, err := strconv.Atoi(strings.TrimSpace(s.MinAdmins))
	if err != nil {
		return nil, fmt.Errorf("invalid min-admins '%v'", s.MinAdmins)
	}

	maxAdmins, err := strconv.Atoi(strings.TrimSpace(s.MaxAdmins))
	if err != nil {
		return nil, fmt.Errorf("invalid max-admins '%v'", s.MaxAdmins)
	}

	location, err := loadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time-zone '%v' (%w)", s.TimeZone, err)
	}

	c := Config{
		Delay:      delay,
		MinAdmins:  minAdmins,
		MaxAdmins:  maxAdmins,
		SheetID:    SpreadsheetID(s.SheetID),
		Recipients: Recipients(s.Recipients),
		Sender:     strings.TrimSpace(s.Sender),
		TimeZone:   location,
		LogURL:     strings.TrimSpace(s.LogURL),
		LogFile:    strings.TrimSpace(s.LogFile),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c Config) Validate() error {
	if c.Delay < 0 {
		return fmt.Errorf("invalid delay %v - must not be negative", c.Delay)
	}

	if c.MinAdmins < 0 {
		return fmt.Errorf("invalid min-admins %v - must not be negative", c.MinAdmins)
	}

	if c.MaxAdmins < c.MinAdmins {
		return fmt.Errorf("invalid max-admins %v - must not be less than min-admins (%v)", c.MaxAdmins, c.MinAdmins)
	}

	if len(c.Recipients) == 0 {
		return fmt.Errorf("at least one email recipient is required")
	}

	return nil
}

// ExecutionLog returns the link to the execution log used in the notification email.
func (c Config) ExecutionLog() string {
	switch {
	case c.LogURL != "":
		return c.LogURL

	case c.LogFile != "":
		return "file://" + c.LogFile

	default:
		return ""
	}
}

// ParseDelay accepts an integer number of milliseconds or a Go duration.
func ParseDelay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)

	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}

	return 0, fmt.Errorf("invalid delay '%v' - expected milliseconds or a duration e.g. 2100 or 2.1s", v)
}

// Recipients splits a comma separated list of email addresses, discarding blanks.
func Recipients(v string) []string {
	list := []string{}

	for _, s := range strings.Split(v, ",") {
		if address := strings.TrimSpace(s); address != "" {
			list = append(list, address)
		}
	}

	return list
}

// SpreadsheetID extracts the ID from a spreadsheet URL. Anything that is not a
// spreadsheet URL is returned as is.
func SpreadsheetID(v string) string {
	v = strings.TrimSpace(v)

	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(v)
	if len(match) > 1 {
		return match[1]
	}

	return v
}

func loadLocation(tz string) (*time.Location, error) {
	switch strings.TrimSpace(tz) {
	case "", "Local":
		return time.Local, nil

	default:
		return time.LoadLocation(strings.TrimSpace(tz))
	}
}

func overlay(field *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*field = v
	}
}
