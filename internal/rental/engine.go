// Package rental walks the four loosely joined sheets behind the locker
// program and reduces them to one fulfillment state per student: registered,
// request submitted, payment progress, locker assigned.
package rental

import (
	"context"
	"time"

	"lockerd/internal/identity"
	"lockerd/internal/store"
	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
)

// Sheet columns the walk joins on.
const (
	colEmail         = "Google_Email"
	colTerm          = "Term"
	colPaid          = "Paid"
	colLockerNumber  = "Locker_Number"
	colPaymentMethod = "Payment_Method"
)

// Ledger payment statuses and request-form payment methods, as entered by
// the admin team.
const (
	PaidNot      = "Not_Paid"
	PaidInvoice  = "Invoice_Sent"
	PaidReceived = "Payment_Received"

	MethodCash   = "Cash"
	MethodPayPal = "PayPal_Invoice"
)

// State is the terminal outcome of one status walk. Exactly one state is
// produced per call.
type State int

const (
	// StateNotRegistered: no contact-form row for this identity.
	StateNotRegistered State = iota
	// StateNoRentalRequest: registered, but no rental-request row.
	StateNoRentalRequest
	// StateAwaitingProcessing: request received, no ledger entry for the
	// current term yet.
	StateAwaitingProcessing
	// StateAwaitingCashPayment: unpaid, paying cash in person.
	StateAwaitingCashPayment
	// StateInvoicePending: unpaid, a PayPal invoice still has to be sent.
	StateInvoicePending
	// StateInvoiceSent: invoice out, payment not yet received.
	StateInvoiceSent
	// StateAwaitingAssignment: paid, no locker number assigned yet.
	StateAwaitingAssignment
	// StateLockerAssigned: paid and assigned.
	StateLockerAssigned
)

// Report is the structured outcome; rendering to text is the caller's
// concern (see Render).
type Report struct {
	Identity      identity.Email
	State         State
	PaymentMethod string
	LockerNumber  string
}

// Config names the sheets the walk joins and how stale each may be read.
type Config struct {
	ContactSheet string
	RequestSheet string
	LedgerSheet  string
	Term         string
	ContactTTL   time.Duration
	RequestTTL   time.Duration
	LedgerTTL    time.Duration
}

// Engine runs status walks under the service credential.
type Engine struct {
	fetcher store.Fetcher
	cfg     Config
}

func NewEngine(fetcher store.Fetcher, cfg Config) *Engine {
	return &Engine{fetcher: fetcher, cfg: cfg}
}

// Registered reports whether the identity has a contact-form row.
func (e *Engine) Registered(ctx context.Context, cache *store.RequestCache, email identity.Email) (bool, error) {
	contact, err := cache.Get(ctx, e.fetcher, e.cfg.ContactSheet, e.cfg.ContactTTL)
	if err != nil {
		return false, err
	}
	if err := contact.RequireColumns(colEmail); err != nil {
		return false, err
	}
	for _, rec := range tabular.RecordList(contact) {
		if email.Matches(rec[colEmail]) {
			return true, nil
		}
	}
	return false, nil
}

// Status walks contact form -> request form -> ledger and returns the first
// terminal state that applies.
func (e *Engine) Status(ctx context.Context, cache *store.RequestCache, email identity.Email) (*Report, error) {
	report := &Report{Identity: email}

	registered, err := e.Registered(ctx, cache, email)
	if err != nil {
		return nil, err
	}
	if !registered {
		report.State = StateNotRegistered
		return report, nil
	}

	request, err := cache.Get(ctx, e.fetcher, e.cfg.RequestSheet, e.cfg.RequestTTL)
	if err != nil {
		return nil, err
	}
	if err := request.RequireColumns(colEmail, colPaymentMethod); err != nil {
		return nil, err
	}
	found := false
	for _, rec := range tabular.RecordList(request) {
		if email.Matches(rec[colEmail]) {
			report.PaymentMethod = rec[colPaymentMethod]
			found = true
			break
		}
	}
	if !found {
		report.State = StateNoRentalRequest
		return report, nil
	}

	entry, err := e.ledgerEntry(ctx, cache, email)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		report.State = StateAwaitingProcessing
		return report, nil
	}

	switch entry[colPaid] {
	case PaidNot:
		if report.PaymentMethod == MethodCash {
			report.State = StateAwaitingCashPayment
		} else {
			report.State = StateInvoicePending
		}
	case PaidInvoice:
		report.State = StateInvoiceSent
	case PaidReceived:
		report.LockerNumber = entry[colLockerNumber]
		if report.LockerNumber != "" {
			report.State = StateLockerAssigned
		} else {
			report.State = StateAwaitingAssignment
		}
	default:
		log.Warn().
			Str("identity", string(email)).
			Str("paid", entry[colPaid]).
			Msg("Ledger row has unrecognized payment status")
		report.State = StateAwaitingProcessing
	}
	return report, nil
}

// ledgerEntry returns the first ledger row for this identity and the current
// term. More than one match is a data-integrity problem in the sheet; the
// first still wins, but the duplicates get logged.
func (e *Engine) ledgerEntry(ctx context.Context, cache *store.RequestCache, email identity.Email) (tabular.Record, error) {
	ledger, err := cache.Get(ctx, e.fetcher, e.cfg.LedgerSheet, e.cfg.LedgerTTL)
	if err != nil {
		return nil, err
	}
	if err := ledger.RequireColumns(colEmail, colTerm, colPaid, colLockerNumber); err != nil {
		return nil, err
	}

	var first tabular.Record
	var matchedRows []int
	for i, rec := range tabular.RecordList(ledger) {
		if email.Matches(rec[colEmail]) && rec[colTerm] == e.cfg.Term {
			if first == nil {
				first = rec
			}
			matchedRows = append(matchedRows, i+2)
		}
	}
	if len(matchedRows) > 1 {
		log.Warn().
			Str("identity", string(email)).
			Str("term", e.cfg.Term).
			Ints("rows", matchedRows).
			Msg("Multiple ledger rows match one identity and term")
	}
	return first, nil
}
