// Package sheets fetches named workbooks from Google Sheets. Workbooks are
// addressed by title, the way humans name them in Drive; the title is
// resolved to a spreadsheet ID once per client and the first worksheet is
// read as plain string cells.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"lockerd/internal/retry"
	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ServiceCredentialID identifies the shared service-account context in
// cache keys and error messages.
const ServiceCredentialID = "service"

// readRange covers the first worksheet; omitting the sheet name makes the
// Sheets API target the first visible sheet.
const readRange = "A1:ZZ10000"

// Client reads workbooks under one credential context.
type Client struct {
	sheets  *sheetsapi.Service
	drive   *drive.Service
	credID  string
	policy  retry.Policy
	idCache sync.Map // workbook title -> spreadsheet ID
}

// NewServiceClient builds a client authenticated as the service account.
func NewServiceClient(ctx context.Context, credentialsFile string, policy retry.Policy) (*Client, error) {
	sheetsSvc, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{sheets: sheetsSvc, drive: driveSvc, credID: ServiceCredentialID, policy: policy}, nil
}

// NewUserClient builds a client authenticated as a specific signed-in user.
// credID must discriminate this user from the service context so cache
// entries fetched under different authorizations never mix.
func NewUserClient(ctx context.Context, ts oauth2.TokenSource, credID string, policy retry.Policy) (*Client, error) {
	sheetsSvc, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{sheets: sheetsSvc, drive: driveSvc, credID: credID, policy: policy}, nil
}

// CredentialID reports which credential context this client fetches under.
func (c *Client) CredentialID() string {
	return c.credID
}

// FetchSheet opens the named workbook and returns its first worksheet.
func (c *Client) FetchSheet(ctx context.Context, name string) (*tabular.Sheet, error) {
	spreadsheetID, err := c.resolveID(ctx, name)
	if err != nil {
		return nil, err
	}

	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*sheetsapi.ValueRange, error) {
		return c.sheets.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	})
	if err != nil {
		return nil, c.mapAPIError(name, err)
	}

	sheet := valuesToSheet(name, resp.Values)
	log.Debug().
		Str("sheet", name).
		Str("credential", c.credID).
		Int("rows", len(sheet.Rows)).
		Msg("Fetched sheet")
	return sheet, nil
}

// resolveID finds the spreadsheet ID for a workbook title via the Drive
// files list. Titles resolve once per client; IDs never change for the
// lifetime of a workbook.
func (c *Client) resolveID(ctx context.Context, name string) (string, error) {
	if cached, ok := c.idCache.Load(name); ok {
		return cached.(string), nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`))

	list, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*drive.FileList, error) {
		return c.drive.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	})
	if err != nil {
		return "", c.mapAPIError(name, err)
	}
	if len(list.Files) == 0 {
		return "", &tabular.NotFoundError{Sheet: name}
	}

	id := list.Files[0].Id
	c.idCache.Store(name, id)
	log.Debug().Str("sheet", name).Str("spreadsheet_id", id).Msg("Resolved workbook title")
	return id, nil
}

// mapAPIError folds Google API failures into the store error taxonomy.
func (c *Client) mapAPIError(name string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &tabular.AuthorizationError{Sheet: name, Credential: c.credID}
		case http.StatusNotFound:
			return &tabular.NotFoundError{Sheet: name}
		}
	}
	return fmt.Errorf("failed to fetch sheet %q: %w", name, err)
}

// valuesToSheet stringifies the API's loosely typed cells. Row 1 becomes the
// header; a completely empty response yields an empty header and no rows.
func valuesToSheet(name string, values [][]interface{}) *tabular.Sheet {
	sheet := &tabular.Sheet{Name: name}
	if len(values) == 0 {
		return sheet
	}
	sheet.Header = stringifyRow(values[0])
	for _, row := range values[1:] {
		sheet.Rows = append(sheet.Rows, stringifyRow(row))
	}
	return sheet
}

func stringifyRow(row []interface{}) []string {
	cells := make([]string, len(row))
	for i, cell := range row {
		if cell != nil {
			cells[i] = fmt.Sprintf("%v", cell)
		}
	}
	return cells
}
