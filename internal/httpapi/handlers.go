package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"lockerd/internal/auth"
	"lockerd/internal/identity"
	"lockerd/internal/rental"
	"lockerd/internal/reports"
	"lockerd/internal/sheets"
	"lockerd/internal/store"
	"lockerd/internal/tabular"

	"github.com/rs/zerolog/log"
)

const (
	capUser   = identity.CapUser
	capEditor = identity.CapEditor
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeText(w, "This is an index page. If you were trying to do something "+
		"else but ended up here, please email the club admin team.")
}

// studentRegister sends the signed-in student to the contact form with their
// email pre-filled.
func (s *Server) studentRegister(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	http.Redirect(w, r, formURL(s.cfg.ContactFormURL, sess.Email), http.StatusFound)
}

// availableLockers serves the memoized availability report. Public: no
// identity needed to see which lockers are free.
func (s *Server) availableLockers(w http.ResponseWriter, r *http.Request) {
	avail, err := s.snapshot.Get(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeText(w, avail.Render())
}

// studentSignup gates the secondary signup form on contact-form registration.
func (s *Server) studentSignup(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	if s.cfg.SignupFormURL == "" {
		http.NotFound(w, r)
		return
	}

	cache := store.NewRequestCache()
	registered, err := s.engine.Registered(r.Context(), cache, sess.Email)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !registered {
		report := rental.Report{Identity: sess.Email, State: rental.StateNotRegistered}
		writeText(w, report.Render(s.links()))
		return
	}
	http.Redirect(w, r, formURL(s.cfg.SignupFormURL, sess.Email), http.StatusFound)
}

// rentALocker reports the student's fulfillment status, or redirects into
// the rental request form when none has been submitted.
func (s *Server) rentALocker(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	cache := store.NewRequestCache()
	report, err := s.engine.Status(r.Context(), cache, sess.Email)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if report.State == rental.StateNoRentalRequest {
		http.Redirect(w, r, formURL(s.cfg.RequestFormURL, sess.Email), http.StatusFound)
		return
	}
	writeText(w, report.Render(s.links()))
}

func (s *Server) invoicesToSend(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	src, err := s.editorSource(r, sess)
	if err != nil {
		s.respondError(w, err)
		return
	}
	report, err := src.InvoicesToSend(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeText(w, report.Render())
}

func (s *Server) lockerQueue(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	src, err := s.editorSource(r, sess)
	if err != nil {
		s.respondError(w, err)
		return
	}
	report, err := src.LockerQueue(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeText(w, report.Render())
}

func (s *Server) lockerTenants(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	src, err := s.editorSource(r, sess)
	if err != nil {
		s.respondError(w, err)
		return
	}
	report, err := src.LockerTenants(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeText(w, report.Render())
}

// editorSource builds a report source fetching under the editor's own
// credential, never the service account. A sheet the editor cannot open
// then surfaces as an authorization failure instead of an empty report.
func (s *Server) editorSource(r *http.Request, sess *auth.Session) (*reports.Source, error) {
	credID := "user:" + string(sess.Email)
	client, err := sheets.NewUserClient(r.Context(), s.auth.TokenSource(r.Context(), sess), credID, s.cfg.Fetch)
	if err != nil {
		return nil, err
	}
	return reports.NewSource(client, store.NewRequestCache(), s.reportsConfig()), nil
}

func (s *Server) links() rental.Links {
	return rental.Links{
		RegisterURL:    "/student/register",
		RequestFormURL: s.cfg.RequestFormURL,
	}
}

// formURL appends the identity to a pre-fill form URL. The configured URL
// ends with the form's query parameter, e.g. ".../viewform?entry.12345=".
func formURL(base string, email identity.Email) string {
	return base + url.QueryEscape(string(email))
}

// respondError maps the store taxonomy onto responses: authorization
// failures become an explicit Unauthorized, everything else a generic
// failure. Stack traces and sheet internals never reach the caller.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, tabular.ErrUnauthorized) {
		log.Warn().Err(err).Msg("Unauthorized sheet access")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	log.Error().Err(err).Msg("Request failed")
	http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, body)
}
