package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. When a visitor
// quotes a code, look it up here and check the application logs for the
// technical error logged next to it.
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Catalog unavailable: the product list could not be loaded
//	         Patterns: "catalog fetch failed", "catalog unavailable"
//
//	CAT002 - Row not found: the product is no longer in the catalog
//	         Patterns: "row not found"
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - Save failed: the selection could not be stored
//	         Patterns: "save selection"
//
//	SEL002 - Storage unreachable: the selection store is not reachable
//	         Patterns: "connection refused", "redis ping"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Empty selection: nothing to export
//	         Patterns: "empty selection"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Unknown action
//	         Patterns: "unknown action"
//
//	REQ002 - Invalid input
//	         Patterns: "invalid row id", "invalid page size"
//
//	REQ003 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ004 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Patterns are matched
// case-insensitively with strings.Contains; the first match wins, so more
// specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgCatalogUnavailable = UserMessage{
		Message: "Error al cargar los productos",
		Action:  "Por favor, revise la consola para más detalles",
		Code:    "CAT001",
	}
	msgRowNotFound = UserMessage{
		Message: "El producto ya no está en el catálogo",
		Action:  "Actualice la página",
		Code:    "CAT002",
	}
	msgSaveFailed = UserMessage{
		Message: "No se pudo guardar la selección",
		Action:  "Intente nuevamente",
		Code:    "SEL001",
	}
	msgStorageUnreachable = UserMessage{
		Message: "El almacenamiento de la selección no está disponible",
		Action:  "Intente nuevamente en unos momentos",
		Code:    "SEL002",
	}
	msgEmptySelection = UserMessage{
		Message: "No hay productos seleccionados para enviar.",
		Action:  "Seleccione al menos un producto",
		Code:    "EXP001",
	}
	msgUnknownAction = UserMessage{
		Message: "Acción desconocida",
		Action:  "Actualice la página e intente nuevamente",
		Code:    "REQ001",
	}
	msgInvalidInput = UserMessage{
		Message: "Datos inválidos",
		Action:  "Revise los valores ingresados",
		Code:    "REQ002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Catalog
	{pattern: "catalog fetch failed", msg: msgCatalogUnavailable},
	{pattern: "catalog unavailable", msg: msgCatalogUnavailable},
	{pattern: "row not found", msg: msgRowNotFound},

	// Export
	{pattern: "empty selection", msg: msgEmptySelection},

	// Selection storage
	{pattern: "connection refused", msg: msgStorageUnreachable},
	{pattern: "redis ping", msg: msgStorageUnreachable},
	{pattern: "save selection", msg: msgSaveFailed},

	// Request
	{pattern: "unknown action", msg: msgUnknownAction},
	{pattern: "invalid row id", msg: msgInvalidInput},
	{pattern: "invalid page size", msg: msgInvalidInput},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "La solicitud fue cancelada",
			Action:  "Intente nuevamente",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "La solicitud tardó demasiado",
			Action:  "Intente nuevamente más tarde",
			Code:    "REQ004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "La solicitud tardó demasiado",
			Action:  "Intente nuevamente más tarde",
			Code:    "REQ004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Demasiadas solicitudes",
			Action:  "Espere un momento antes de intentar nuevamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocurrió un error inesperado",
	Action:  "Intente nuevamente",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("dispatch: %w", export.ErrEmptySelection)
//	msg := MapError(err)
//	// msg.Code == "EXP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Código: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
