package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/web/middleware"
	"github.com/JonMunkholm/catalog/internal/web/templates"
)

// MaxFormSize caps action and export form bodies.
const MaxFormSize = 64 * 1024

// session resolves the visitor's session.
func (s *Server) session(r *http.Request) (*core.Session, error) {
	return s.service.Session(r.Context(), middleware.VisitorID(r.Context()))
}

// handleBrowse renders the catalog page for the visitor's current view.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	renderHTML(w, r, http.StatusOK, templates.BrowsePage(sess.BrowsePage(r.URL.Query().Get("zoom"))))
}

// handleSelected renders the selected-products page.
func (s *Server) handleSelected(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	renderHTML(w, r, http.StatusOK, templates.SelectedPage(sess.SelectedPage(r.URL.Query().Get("zoom"))))
}

// handleAction applies one delegated action and redirects back to the page
// that submitted it. JSON clients get the resulting selection instead.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	action := core.Action{
		Name:     r.PostForm.Get("action"),
		ID:       r.PostForm.Get("id"),
		Quantity: r.PostForm.Get("quantity"),
		Brand:    r.PostForm.Get("brand"),
		Query:    r.PostForm.Get("q"),
		PageSize: r.PostForm.Get("page_size"),
	}
	if err := sess.Dispatch(r.Context(), action); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, sess.Record())
		return
	}
	http.Redirect(w, r, safeReturn(r.PostForm.Get("return")), http.StatusSeeOther)
}

// handleExportPDF streams the selection as a PDF attachment. An empty
// selection sends the visitor back to the selected page, where the refusal
// notice is shown.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	sess, contact, ok := s.exportRequest(w, r)
	if !ok {
		return
	}

	blocks, err := sess.Document(r.Context(), contact)
	if err != nil {
		s.exportRefused(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, blocks); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("pdf exported", "pages", len(blocks), "bytes", buf.Len())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.Export.DocumentName))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleExportMessage redirects to the messaging link for the selection.
func (s *Server) handleExportMessage(w http.ResponseWriter, r *http.Request) {
	sess, contact, ok := s.exportRequest(w, r)
	if !ok {
		return
	}

	link, err := sess.MessageLink(r.Context(), contact, s.cfg.Export.MessageEndpoint, s.cfg.Export.ContactNumber)
	if err != nil {
		s.exportRefused(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("message link built", "length", len(link))

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"url": link})
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// exportRequest parses the contact form and resolves the session.
func (s *Server) exportRequest(w http.ResponseWriter, r *http.Request) (*core.Session, export.Contact, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return nil, export.Contact{}, false
	}

	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, export.Contact{}, false
	}
	return sess, s.contactFromForm(r), true
}

func (s *Server) exportRefused(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, export.ErrEmptySelection) {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if wantsJSON(r) {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	http.Redirect(w, r, templates.SelectedPath, http.StatusSeeOther)
}

// contactFromForm reads the contact fields. An unknown country code falls
// back to the configured default.
func (s *Server) contactFromForm(r *http.Request) export.Contact {
	code := strings.TrimSpace(r.PostForm.Get("country_code"))
	if !export.KnownCountry(code) {
		code = s.cfg.Export.DefaultCountryCode
	}
	return export.Contact{
		Name:        strings.TrimSpace(r.PostForm.Get("name")),
		Email:       strings.TrimSpace(r.PostForm.Get("email")),
		CountryCode: code,
		Phone:       r.PostForm.Get("whatsapp"),
		Business:    strings.TrimSpace(r.PostForm.Get("business")),
	}
}

// handleSelection returns the visitor's selection as persisted.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Record())
}

// handleBrands returns the distinct catalog brands, sorted.
func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	if !s.service.Ready() {
		s.respondError(w, r, s.service.Err(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Brands())
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Skipped  int    `json:"skipped"`
	Sessions int    `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	resp := HealthResponse{
		Status:   "ok",
		Rows:     cat.Len(),
		Skipped:  cat.Skipped(),
		Sessions: s.service.SessionCount(),
	}

	status := http.StatusOK
	if !s.service.Ready() {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
		if err := s.service.Err(); err != nil {
			resp.Error = err.Error()
		}
	}
	writeJSON(w, status, resp)
}

// safeReturn keeps redirects on this site.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return templates.BrowsePath
	}
	return target
}

// writeError writes a plain JSON error for malformed requests.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
