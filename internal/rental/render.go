package rental

import (
	"fmt"
	"strings"
)

// Links carries the external form URLs a rendered report may point at.
type Links struct {
	RegisterURL    string
	RequestFormURL string
}

// Render lays out a status report as the step-by-step text the student sees.
func (r *Report) Render(links Links) string {
	switch r.State {
	case StateNotRegistered:
		return fmt.Sprintf("You don't seem to be in our database yet! Please visit %s "+
			"to fill out your contact information first.", links.RegisterURL)
	case StateNoRentalRequest:
		return fmt.Sprintf("We have your contact information, but no locker rental "+
			"request. Please fill out %s to request a locker.", links.RequestFormURL)
	}

	lines := []string{
		fmt.Sprintf("Your ID is %s", r.Identity),
		"",
		"Step 1 (Rental Request Form): Complete! We have received your form.",
	}

	switch r.State {
	case StateAwaitingProcessing:
		lines = append(lines, "Step 1a: We have received your locker rental request. "+
			"If there are any available lockers for you, we'll try to process it "+
			"as soon as possible!")
	case StateAwaitingCashPayment:
		lines = append(lines, "Step 2 (Payment): Waiting for your payment; please "+
			"visit the club office to pay with cash! Cost is $11.")
	case StateInvoicePending:
		lines = append(lines, "Step 2 (Payment): We need to send you a PayPal "+
			"invoice; you should receive it soon so that you are able to pay for "+
			"your locker.")
	case StateInvoiceSent:
		lines = append(lines, "Step 2 (Payment): A PayPal invoice has been sent to "+
			"your email. Please promptly pay this invoice so that we can assign "+
			"you a locker number.")
	case StateAwaitingAssignment:
		lines = append(lines,
			"Step 2 (Payment): We have successfully received your payment!",
			"Step 3 (Locker Assignment): We have not yet determined your locker "+
				"number. Please check back in a bit!")
	case StateLockerAssigned:
		lines = append(lines,
			"Step 2 (Payment): We have successfully received your payment!",
			fmt.Sprintf("Step 3 (Locker Assignment): Your locker has been assigned. "+
				"Your locker is #%s", r.LockerNumber))
	}

	return strings.Join(lines, "\n")
}
