package sheets

import (
	"errors"
	"testing"

	"lockerd/internal/tabular"

	"google.golang.org/api/googleapi"
)

func TestValuesToSheet(t *testing.T) {
	values := [][]interface{}{
		{"Number", "Type"},
		{"101", "Rentable"},
		{102, nil},
	}
	sheet := valuesToSheet("Lockers", values)
	if sheet.Name != "Lockers" {
		t.Errorf("Expected sheet name Lockers, got %q", sheet.Name)
	}
	if len(sheet.Header) != 2 || sheet.Header[0] != "Number" {
		t.Errorf("Unexpected header: %v", sheet.Header)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("Expected 2 data rows, got %d", len(sheet.Rows))
	}
	// Numeric cells stringify; nil cells read as empty.
	if sheet.Rows[1][0] != "102" || sheet.Rows[1][1] != "" {
		t.Errorf("Unexpected stringified row: %v", sheet.Rows[1])
	}
}

func TestValuesToSheetEmpty(t *testing.T) {
	sheet := valuesToSheet("Lockers", nil)
	if len(sheet.Header) != 0 || len(sheet.Rows) != 0 {
		t.Errorf("Expected empty sheet, got header=%v rows=%v", sheet.Header, sheet.Rows)
	}
}

func TestMapAPIError(t *testing.T) {
	c := &Client{credID: "user:admin@gmail.com"}

	err := c.mapAPIError("Lockers", &googleapi.Error{Code: 403})
	if !errors.Is(err, tabular.ErrUnauthorized) {
		t.Errorf("Expected authorization error for 403, got %v", err)
	}

	err = c.mapAPIError("Lockers", &googleapi.Error{Code: 404})
	if !errors.Is(err, tabular.ErrNotFound) {
		t.Errorf("Expected not-found error for 404, got %v", err)
	}

	err = c.mapAPIError("Lockers", errors.New("connection reset"))
	if errors.Is(err, tabular.ErrUnauthorized) || errors.Is(err, tabular.ErrNotFound) {
		t.Errorf("Expected transport errors left unclassified, got %v", err)
	}
}
