// Package reports implements the admin-side reconciliation reports: which
// invoices still have to go out, who is queued for a locker, and who holds
// which locker. Every report runs under the calling editor's own credential,
// so a sheet the editor cannot open fails the whole report closed instead of
// rendering an empty-looking success.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lockerd/internal/identity"
	"lockerd/internal/rental"
	"lockerd/internal/store"
	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
)

const (
	colEmail            = "Google_Email"
	colContactEmail     = "Email_Address"
	colDept             = "Dept"
	colLegalName        = "Full_Legal_Name"
	colPaid             = "Paid"
	colLockerNumber     = "Locker_Number"
	colPaymentMethod    = "Payment_Method"
	colDesiredNumber    = "Desired_Locker_Number"
	colRenewal          = "Renewal"
	colTimestamp        = "Timestamp"
	colWarningEmailSent = "Warning_Email_Sent"
)

// timestampLayout matches the form service's submission timestamps.
const timestampLayout = "1/02/2006 15:04:05"

// unpaidGraceDays is how long an unpaid rental may sit before it lands in
// the warning-email bucket.
const unpaidGraceDays = 4

// renewalPriorityCutoff is the request-form row index below which an ECE
// renewal keeps its old locker priority.
const renewalPriorityCutoff = 150

// Config names the sheets the reports join and how stale each may be read.
type Config struct {
	ContactSheet string
	RequestSheet string
	LedgerSheet  string
	ContactTTL   time.Duration
	RequestTTL   time.Duration
	LedgerTTL    time.Duration
}

// Source runs reports over one editor's credentialed fetcher and one
// request's cache.
type Source struct {
	fetcher store.Fetcher
	cache   *store.RequestCache
	cfg     Config
	now     func() time.Time
}

func NewSource(fetcher store.Fetcher, cache *store.RequestCache, cfg Config) *Source {
	return &Source{fetcher: fetcher, cache: cache, cfg: cfg, now: time.Now}
}

// Invoice is one PayPal invoice that still has to be sent.
type Invoice struct {
	ContactEmail string
	GoogleEmail  string
}

// InvoiceReport lists outstanding invoices plus the ledger rows the join
// could not resolve.
type InvoiceReport struct {
	Invoices       []Invoice
	MissingRequest int // ledger rows with no request-form match
	MissingContact int // invoice candidates with no contact-form match
}

// InvoicesToSend emits one entry per unpaid ledger row whose request form
// chose PayPal. Rows with no request-form match are skipped and counted.
func (s *Source) InvoicesToSend(ctx context.Context) (*InvoiceReport, error) {
	ledger, requests, contacts, err := s.joinSheets(ctx)
	if err != nil {
		return nil, err
	}
	if err := ledger.RequireColumns(colEmail, colPaid); err != nil {
		return nil, err
	}

	report := &InvoiceReport{}
	for _, entry := range tabular.RecordList(ledger) {
		email := identity.Normalize(entry[colEmail])
		form, ok := requests[string(email)]
		if !ok {
			report.MissingRequest++
			continue
		}
		if form[colPaymentMethod] != rental.MethodPayPal || entry[colPaid] != rental.PaidNot {
			continue
		}
		contact, ok := contacts[string(email)]
		if !ok {
			report.MissingContact++
			continue
		}
		report.Invoices = append(report.Invoices, Invoice{
			ContactEmail: contact[colContactEmail],
			GoogleEmail:  string(email),
		})
	}

	if report.MissingRequest > 0 || report.MissingContact > 0 {
		log.Warn().
			Int("missing_request_rows", report.MissingRequest).
			Int("missing_contact_rows", report.MissingContact).
			Msg("Invoice report skipped unresolvable ledger rows")
	}
	return report, nil
}

// RenewalEntry is a prioritized renewal request.
type RenewalEntry struct {
	Email         string
	DesiredNumber string
}

// QueueReport buckets every request-form row by how it should be worked.
type QueueReport struct {
	Pre150ECERenewal []RenewalEntry
	ECE              []string
	NonECE           []string
	NoContactEmail   []string
	UnpaidOver4d     []string
	SkippedRows      int // rows with unparseable timestamps
}

// LockerQueue classifies request-form rows in submission order. Requests
// without a ledger entry are queued by department and renewal priority;
// requests already in the ledger but unpaid past the grace period land in
// the warning-email bucket.
func (s *Source) LockerQueue(ctx context.Context) (*QueueReport, error) {
	// The request form is scanned as a list here: students resubmit the
	// form, and a duplicate row must not abort the whole queue.
	ledger, err := s.cache.Get(ctx, s.fetcher, s.cfg.LedgerSheet, s.cfg.LedgerTTL)
	if err != nil {
		return nil, err
	}
	contacts, err := s.keyedSheet(ctx, s.cfg.ContactSheet, s.cfg.ContactTTL)
	if err != nil {
		return nil, err
	}
	requestSheet, err := s.cache.Get(ctx, s.fetcher, s.cfg.RequestSheet, s.cfg.RequestTTL)
	if err != nil {
		return nil, err
	}
	if err := requestSheet.RequireColumns(colEmail, colDesiredNumber, colRenewal, colTimestamp); err != nil {
		return nil, err
	}
	if err := ledger.RequireColumns(colEmail, colPaid, colWarningEmailSent); err != nil {
		return nil, err
	}

	// Ledger rows grouped per identity: one student can hold entries from
	// several terms.
	ledgerByEmail := make(map[string][]tabular.Record)
	for _, entry := range tabular.RecordList(ledger) {
		email := string(identity.Normalize(entry[colEmail]))
		ledgerByEmail[email] = append(ledgerByEmail[email], entry)
	}

	report := &QueueReport{}
	for i, entry := range tabular.RecordList(requestSheet) {
		email := string(identity.Normalize(entry[colEmail]))
		contact, hasContact := contacts[email]

		entries, inLedger := ledgerByEmail[email]
		if !inLedger {
			if !hasContact {
				report.NoContactEmail = append(report.NoContactEmail, email)
				continue
			}
			if contact[colDept] == "ECE" {
				if i < renewalPriorityCutoff && entry[colRenewal] == "Yes" {
					report.Pre150ECERenewal = append(report.Pre150ECERenewal, RenewalEntry{
						Email:         email,
						DesiredNumber: entry[colDesiredNumber],
					})
				} else {
					report.ECE = append(report.ECE, email)
				}
			} else {
				report.NonECE = append(report.NonECE, email)
			}
			continue
		}

		for _, lr := range entries {
			if lr[colWarningEmailSent] == "Yes" || lr[colPaid] != rental.PaidNot {
				continue
			}
			submitted, err := time.Parse(timestampLayout, entry[colTimestamp])
			if err != nil {
				report.SkippedRows++
				log.Warn().
					Str("timestamp", entry[colTimestamp]).
					Str("identity", email).
					Msg("Skipping request row with unparseable timestamp")
				continue
			}
			if s.now().Sub(submitted) >= unpaidGraceDays*24*time.Hour {
				contactEmail := ""
				if hasContact {
					contactEmail = contact[colContactEmail]
				}
				report.UnpaidOver4d = append(report.UnpaidOver4d, contactEmail)
			}
		}
	}
	return report, nil
}

// Tenant is one assigned locker and its holder.
type Tenant struct {
	Number string // zero-padded for sorting
	Name   string
}

// RosterReport maps assigned lockers to legal names.
type RosterReport struct {
	Tenants        []Tenant
	MissingContact int // assigned rows whose identity has no contact match
}

// LockerTenants joins every assigned ledger row to the contact sheet.
// Output is sorted by padded locker number, then name.
func (s *Source) LockerTenants(ctx context.Context) (*RosterReport, error) {
	ledger, err := s.cache.Get(ctx, s.fetcher, s.cfg.LedgerSheet, s.cfg.LedgerTTL)
	if err != nil {
		return nil, err
	}
	contacts, err := s.keyedSheet(ctx, s.cfg.ContactSheet, s.cfg.ContactTTL)
	if err != nil {
		return nil, err
	}
	if err := ledger.RequireColumns(colEmail, colLockerNumber); err != nil {
		return nil, err
	}

	report := &RosterReport{}
	for _, entry := range tabular.RecordList(ledger) {
		number := entry[colLockerNumber]
		if number == "" {
			continue
		}
		contact, ok := contacts[string(identity.Normalize(entry[colEmail]))]
		if !ok {
			report.MissingContact++
			continue
		}
		report.Tenants = append(report.Tenants, Tenant{
			Number: padNumber(number),
			Name:   contact[colLegalName],
		})
	}

	sort.Slice(report.Tenants, func(i, j int) bool {
		if report.Tenants[i].Number != report.Tenants[j].Number {
			return report.Tenants[i].Number < report.Tenants[j].Number
		}
		return report.Tenants[i].Name < report.Tenants[j].Name
	})
	return report, nil
}

// padNumber left-pads a locker number to three digits so lexical sort
// matches numeric order.
func padNumber(number string) string {
	for len(number) < 3 {
		number = "0" + number
	}
	return number
}

// joinSheets fetches the ledger as records and the request/contact sheets
// keyed by identity. Any fetch or keying failure aborts the caller's report.
func (s *Source) joinSheets(ctx context.Context) (*tabular.Sheet, map[string]tabular.Record, map[string]tabular.Record, error) {
	ledger, err := s.cache.Get(ctx, s.fetcher, s.cfg.LedgerSheet, s.cfg.LedgerTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	requests, err := s.keyedSheet(ctx, s.cfg.RequestSheet, s.cfg.RequestTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	contacts, err := s.keyedSheet(ctx, s.cfg.ContactSheet, s.cfg.ContactTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	return ledger, requests, contacts, nil
}

func (s *Source) keyedSheet(ctx context.Context, name string, ttl time.Duration) (map[string]tabular.Record, error) {
	sheet, err := s.cache.Get(ctx, s.fetcher, name, ttl)
	if err != nil {
		return nil, err
	}
	return tabular.KeyedRecords(sheet, colEmail, true)
}

// Render lays the invoice report out as one line per outstanding invoice.
func (r *InvoiceReport) Render() string {
	var b strings.Builder
	for _, inv := range r.Invoices {
		fmt.Fprintf(&b, "Email_Address: %s, Google_Email: %s\n", inv.ContactEmail, inv.GoogleEmail)
	}
	return b.String()
}

// Render lays the queue report out section by section.
func (r *QueueReport) Render() string {
	var b strings.Builder
	b.WriteString("== Pre-150 ECE renewals ==\n")
	for _, e := range r.Pre150ECERenewal {
		fmt.Fprintf(&b, "%s %s\n", e.Email, e.DesiredNumber)
	}
	b.WriteString("\n== ECE students ==\n")
	for _, e := range r.ECE {
		fmt.Fprintf(&b, "%s\n", e)
	}
	b.WriteString("\n== Non-ECE students ==\n")
	for _, e := range r.NonECE {
		fmt.Fprintf(&b, "%s\n", e)
	}
	b.WriteString("\n== Not on the contact sheet (contact form never filled out) ==\n")
	for _, e := range r.NoContactEmail {
		fmt.Fprintf(&b, "%s\n", e)
	}
	b.WriteString("\n== Warning emails to send ==\n")
	for _, e := range r.UnpaidOver4d {
		fmt.Fprintf(&b, "%s\n", e)
	}
	return b.String()
}

// Render lays the roster out as "number name" lines.
func (r *RosterReport) Render() string {
	var b strings.Builder
	for _, t := range r.Tenants {
		fmt.Fprintf(&b, "%s    %s\n", t.Number, t.Name)
	}
	return b.String()
}
