// Package core provides the application state and actions of the catalog
// browser.
//
// This package owns every piece of mutable state and is independent of any
// transport. It can be driven by web handlers, the CLI, or tests without
// modification.
//
// # Architecture
//
// The package is organized around two types:
//
//   - Service: owns the immutable catalog, the selection backend and the set
//     of live visitor sessions. One Service exists per process.
//   - Session: one visitor's view state (filters, page window), selection
//     store and last contact form. All mutations go through
//     [Session.Dispatch], which serializes them with a per-session lock so
//     every action runs to completion before the next one starts.
//
// # Delegated Actions
//
// The page has one action endpoint. Each control submits an [Action] whose
// Name selects the behavior:
//
//	filter      set brand and name filters, back to page 1
//	page-size   change page size, back to page 1
//	first, prev, next, last
//	select      select a row (quantity defaults to 1)
//	deselect    remove a row from the selection
//	quantity    change the quantity of a selected row, <= 0 removes it
//	delete      remove a row from the selection
//	clear       empty the selection
//
// Every selection change is persisted before Dispatch returns.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CAT001-CAT002: Catalog errors (fetch failed, row not found)
//   - SEL001-SEL002: Selection storage errors
//   - EXP001: Export errors (empty selection)
//   - REQ001-REQ004: Request errors (unknown action, bad input, cancelled)
//   - RATE001: Rate limiting
package core
