package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/wb-sheets-sync/pkg/config"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValueInputRaw stores values exactly as sent, without formula or date parsing.
const ValueInputRaw = "RAW"

var (
	errSpreadsheetIDRequired = errors.New("spreadsheet id is required")
	errClientNotInitialized  = errors.New("sheets client not initialized")
)

// Client reads and writes cell ranges of a single spreadsheet.
type Client struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
}

// NewClient creates a Sheets v4 client authenticated with the configured
// service account. Extra options are appended after the credentials.
func NewClient(ctx context.Context, spreadsheetID string, gcp config.GCPConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errSpreadsheetIDRequired
	}

	opts := append(clientOptions(gcp), extra...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "spreadsheet_id", spreadsheetID), "sheets client initialized")
	}

	return &Client{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
	}, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

// Read returns the rows of the range. Trailing empty rows and cells are
// omitted by the API, so rows may be ragged.
func (c *Client) Read(ctx context.Context, rng string) ([][]any, error) {
	if c == nil || c.values == nil {
		return nil, errClientNotInitialized
	}
	resp, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading range %q: %w", rng, err)
	}
	if resp.Values == nil {
		return [][]any{}, nil
	}
	return resp.Values, nil
}

// Write overwrites the range with values using RAW input.
func (c *Client) Write(ctx context.Context, rng string, values [][]any) error {
	if c == nil || c.values == nil {
		return errClientNotInitialized
	}
	body := &gsheets.ValueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         values,
	}
	if _, err := c.values.Update(c.spreadsheetID, rng, body).
		ValueInputOption(ValueInputRaw).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("writing range %q: %w", rng, err)
	}
	return nil
}
