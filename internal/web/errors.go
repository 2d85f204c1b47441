package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical details and request id, then
// mapped through core.MapError and returned as JSON for API clients or as an
// HTML page otherwise. A failed catalog always renders the fixed catalog
// error page.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/web/templates"
	"github.com/a-h/templ"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a user-friendly response. Errors that
// map to a known code are expected and logged as warnings; anything that
// falls back to ERR000 is logged as an error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	ue := core.NewUserError(err)

	log := logging.FromContext(r.Context()).Error
	if core.IsUserFacing(err) {
		log = logging.FromContext(r.Context()).Warn
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", ue.Technical.Error(),
		"code", ue.User.Code,
	)

	switch {
	case wantsJSON(r):
		respondErrorJSON(w, ue.User, statusCode)
	case errors.Is(ue, core.ErrCatalogUnavailable):
		renderHTML(w, r, statusCode, templates.CatalogError())
	default:
		renderHTML(w, r, statusCode, templates.ErrorPage(ue.User.Message, ue.User.Action, ue.User.Code))
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownAction),
		errors.Is(err, core.ErrInvalidRowID),
		errors.Is(err, core.ErrInvalidPageSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// renderHTML writes a component with the given status.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
