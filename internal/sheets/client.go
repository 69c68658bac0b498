// Package sheets reads the schedule spreadsheet and stores subscriptions in it.
//
// Two read paths exist. Client talks to the Sheets API v4 with a service
// account. Published reads a sheet that was published to the web and needs
// no credentials, but it cannot write, so it cannot back subscriptions.
package sheets

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vipowerus/schedule-bot/internal/schedule"
)

// Config ...
type Config struct {
	SpreadsheetID   string `toml:"spreadsheet_id"`
	CredentialsFile string `toml:"credentials_file"`
	CredentialsJSON string `toml:"credentials_json"`
	ScheduleSheet   string `toml:"schedule_sheet"`
	ExamsSheet      string `toml:"exams_sheet"`
	SubsSheet       string `toml:"subs_sheet"`
	// Published switches reads to the public HTML export of the spreadsheet.
	Published    bool   `toml:"published"`
	PublishedURL string `toml:"published_url"`
}

// NewConfig returns the default sheet names.
func NewConfig() *Config {
	return &Config{
		ScheduleSheet: "schedule",
		ExamsSheet:    "exams",
		SubsSheet:     "subs",
		PublishedURL:  "https://docs.google.com",
	}
}

// HasCredentials reports whether a service account is configured: the
// credentials file exists or inline JSON is set.
func (c *Config) HasCredentials() bool {
	return c.credentialsFileExists() || c.CredentialsJSON != ""
}

func (c *Config) credentialsFileExists() bool {
	if c.CredentialsFile == "" {
		return false
	}
	info, err := os.Stat(c.CredentialsFile)
	return err == nil && !info.IsDir()
}

// credentials prefers an existing credentials file and falls back to the
// inline JSON.
func (c *Config) credentials() ([]byte, error) {
	if c.credentialsFileExists() {
		creds, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, errors.Wrap(err, "read credentials file")
		}
		return creds, nil
	}
	if c.CredentialsJSON != "" {
		return []byte(c.CredentialsJSON), nil
	}
	if c.CredentialsFile != "" {
		return nil, errors.Errorf("credentials file %s not found and credentials_json is empty", c.CredentialsFile)
	}
	return nil, errors.New("either credentials_file or credentials_json must be set")
}

// Client reads and writes worksheets through the Sheets API.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	accountEmail  string
}

// NewClient authorises a service account from the configured credentials.
func NewClient(ctx context.Context, config *Config, logger logrus.FieldLogger) (*Client, error) {
	creds, err := config.credentials()
	if err != nil {
		return nil, err
	}
	jwtConfig, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, errors.Wrap(err, "parse service account credentials")
	}
	service, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}

	client := NewClientWithService(service, config.SpreadsheetID)
	client.accountEmail = jwtConfig.Email
	if logger != nil {
		// the spreadsheet has to be shared with this address
		logger.WithField("service_account", jwtConfig.Email).Info("Google Sheets client authorized")
	}
	return client, nil
}

// NewClientWithService wraps an already configured service.
func NewClientWithService(service *sheets.Service, spreadsheetID string) *Client {
	return &Client{service: service, spreadsheetID: spreadsheetID}
}

// ServiceAccountEmail ...
func (c *Client) ServiceAccountEmail() string {
	return c.accountEmail
}

// Records returns all rows of sheet keyed by its header row.
func (c *Client) Records(ctx context.Context, sheet string) ([]schedule.Record, error) {
	values, err := c.values(ctx, quoteSheet(sheet))
	if err != nil {
		return nil, err
	}
	return toRecords(values), nil
}

func (c *Client) values(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "get values %s", rng)
	}
	return resp.Values, nil
}

func (c *Client) update(ctx context.Context, rng string, values [][]interface{}) error {
	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return errors.Wrapf(err, "update values %s", rng)
}

func (c *Client) appendRows(ctx context.Context, rng string, values [][]interface{}) error {
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return errors.Wrapf(err, "append values %s", rng)
}

func (c *Client) clear(ctx context.Context, rng string) error {
	_, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	return errors.Wrapf(err, "clear values %s", rng)
}

// EnsureSheet adds a worksheet named title when the spreadsheet has none.
func (c *Client) EnsureSheet(ctx context.Context, title string) error {
	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "get spreadsheet")
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err = c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return errors.Wrapf(err, "add sheet %q", title)
}

// quoteSheet turns a sheet name into an A1 range covering the whole sheet.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
