package tabular

import (
	"errors"
	"testing"
)

func contactSheet() *Sheet {
	return &Sheet{
		Name:   "Contact Form (Responses)",
		Header: []string{"Google_Email", "Email_Address", "Dept"},
		Rows: [][]string{
			{"alice@gmail.com", "alice@example.com", "ECE"},
			{"Bob@Gmail.com", "bob@example.com", "MECH"},
		},
	}
}

func TestKeyedRecordsMatchesRowCount(t *testing.T) {
	sheet := contactSheet()
	keyed, err := KeyedRecords(sheet, "Google_Email", true)
	if err != nil {
		t.Fatalf("KeyedRecords failed: %v", err)
	}
	if len(keyed) != len(sheet.Rows) {
		t.Errorf("Expected %d records, got %d", len(sheet.Rows), len(keyed))
	}

	rec, ok := keyed["bob@gmail.com"]
	if !ok {
		t.Fatal("Expected folded key bob@gmail.com")
	}
	if rec["Email_Address"] != "bob@example.com" || rec["Dept"] != "MECH" {
		t.Errorf("Record does not match source row: %v", rec)
	}
	// The raw cell value stays in the record even though the key folds.
	if rec["Google_Email"] != "Bob@Gmail.com" {
		t.Errorf("Expected raw cell value preserved, got %q", rec["Google_Email"])
	}
}

func TestKeyedRecordsNoFold(t *testing.T) {
	keyed, err := KeyedRecords(contactSheet(), "Google_Email", false)
	if err != nil {
		t.Fatalf("KeyedRecords failed: %v", err)
	}
	if _, ok := keyed["Bob@Gmail.com"]; !ok {
		t.Error("Expected unfolded key Bob@Gmail.com")
	}
	if _, ok := keyed["bob@gmail.com"]; ok {
		t.Error("Did not expect folded key without fold")
	}
}

func TestKeyedRecordsDuplicateKey(t *testing.T) {
	sheet := contactSheet()
	sheet.Rows = append(sheet.Rows, []string{"alice@gmail.com", "other@example.com", "ECE"})

	_, err := KeyedRecords(sheet, "Google_Email", true)
	if err == nil {
		t.Fatal("Expected duplicate key error")
	}
	if !errors.Is(err, ErrNonUniqueKey) {
		t.Errorf("Expected ErrNonUniqueKey, got %v", err)
	}
	var dup *NonUniqueKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected NonUniqueKeyError, got %T", err)
	}
	if dup.Value != "alice@gmail.com" {
		t.Errorf("Expected offending value alice@gmail.com, got %q", dup.Value)
	}
	if dup.Row != 4 {
		t.Errorf("Expected sheet row 4, got %d", dup.Row)
	}
}

func TestKeyedRecordsMissingColumn(t *testing.T) {
	_, err := KeyedRecords(contactSheet(), "Nope", true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Column != "Nope" {
		t.Errorf("Expected NotFoundError naming the column, got %v", err)
	}
}

func TestRecordListEmptySheet(t *testing.T) {
	sheet := &Sheet{Name: "Lockers", Header: []string{"Number", "Type"}}
	recs := RecordList(sheet)
	if len(recs) != 0 {
		t.Errorf("Expected empty list for header-only sheet, got %d records", len(recs))
	}
}

func TestRecordListShortRows(t *testing.T) {
	sheet := &Sheet{
		Name:   "Lockers",
		Header: []string{"Number", "Type", "Notes"},
		Rows:   [][]string{{"101"}},
	}
	recs := RecordList(sheet)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0]["Number"] != "101" || recs[0]["Type"] != "" || recs[0]["Notes"] != "" {
		t.Errorf("Short row should read as empty cells: %v", recs[0])
	}
}

func TestRequireColumns(t *testing.T) {
	sheet := contactSheet()
	if err := sheet.RequireColumns("Google_Email", "Dept"); err != nil {
		t.Errorf("Expected columns present, got %v", err)
	}
	if err := sheet.RequireColumns("Google_Email", "Paid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing column, got %v", err)
	}
}
