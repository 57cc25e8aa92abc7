// Package inventory computes which rentable lockers are currently free by
// diffing the inventory sheet against the rental ledger. The two sheets are
// edited independently by humans, so the ledger is also audited for numbers
// that are claimed twice or that do not exist in the inventory at all.
package inventory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
)

const (
	colNumber       = "Number"
	colType         = "Type"
	colLockerNumber = "Locker_Number"
	colMovedIn      = "Moved_In"
	colEmail        = "Google_Email"

	typeRentable = "Rentable"
)

// LedgerRef points at one audited ledger row.
type LedgerRef struct {
	Row    int // 1-based sheet row
	Number string
	Email  string
}

// Availability is the outcome of one reconciliation pass.
type Availability struct {
	// Rentable lists free locker numbers in ascending numeric order.
	Rentable []int
	// DoublyUsed lists ledger rows whose number was already claimed by an
	// earlier row.
	DoublyUsed []LedgerRef
	// Invalid lists ledger rows referencing a number that is not a rentable
	// inventory locker.
	Invalid []LedgerRef
}

// Reconcile diffs the inventory sheet against the ledger. A non-numeric
// number on a rentable inventory row is a validation error and fails the
// whole computation; malformed ledger rows only land in the audit lists.
func Reconcile(lockers, ledger *tabular.Sheet) (*Availability, error) {
	if err := lockers.RequireColumns(colNumber, colType); err != nil {
		return nil, err
	}
	if err := ledger.RequireColumns(colLockerNumber, colMovedIn, colEmail); err != nil {
		return nil, err
	}

	rentable := make(map[string]int)
	for _, rec := range tabular.RecordList(lockers) {
		if rec[colType] != typeRentable {
			continue
		}
		num := rec[colNumber]
		n, err := strconv.Atoi(num)
		if err != nil {
			return nil, &tabular.ValidationError{
				Sheet:  lockers.Name,
				Column: colNumber,
				Value:  num,
				Reason: "rentable locker number is not numeric",
			}
		}
		rentable[num] = n
	}

	allRentable := make(map[string]bool, len(rentable))
	for num := range rentable {
		allRentable[num] = true
	}

	avail := &Availability{}
	used := make(map[string]bool)
	for i, rec := range tabular.RecordList(ledger) {
		num := rec[colLockerNumber]
		if num == "" {
			continue
		}
		ref := LedgerRef{Row: i + 2, Number: num, Email: rec[colEmail]}

		if used[num] {
			avail.DoublyUsed = append(avail.DoublyUsed, ref)
		} else if !allRentable[num] {
			avail.Invalid = append(avail.Invalid, ref)
		}

		// A row claims its number unless the cell reads exactly "Yes".
		// Whether "Yes" means moved-in-and-unavailable or the opposite is
		// an open product question; the comparison is kept literal.
		if _, free := rentable[num]; free && rec[colMovedIn] != "Yes" {
			delete(rentable, num)
			used[num] = true
		}
	}

	for _, n := range rentable {
		avail.Rentable = append(avail.Rentable, n)
	}
	sort.Ints(avail.Rentable)

	log.Debug().
		Int("rentable", len(avail.Rentable)).
		Int("doubly_used", len(avail.DoublyUsed)).
		Int("invalid", len(avail.Invalid)).
		Msg("Reconciled locker inventory")
	return avail, nil
}

// Render lays out the availability report as plain text: free numbers first,
// then the audit sections, each behind a visible divider.
func (a *Availability) Render() string {
	var b strings.Builder
	for _, n := range a.Rentable {
		fmt.Fprintf(&b, "%d\n", n)
	}
	b.WriteString("\n== Doubly-used locker numbers ==\n")
	for _, ref := range a.DoublyUsed {
		fmt.Fprintf(&b, "#%s %s (row %d)\n", ref.Number, ref.Email, ref.Row)
	}
	b.WriteString("\n== Invalid entries ==\n")
	for _, ref := range a.Invalid {
		fmt.Fprintf(&b, "#%s %s (row %d)\n", ref.Number, ref.Email, ref.Row)
	}
	return b.String()
}
