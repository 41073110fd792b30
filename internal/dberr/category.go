// Package dberr classifies database failures into a closed taxonomy and
// builds user-safe error responses from them.
package dberr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	"github.com/mattn/go-sqlite3"

	"donor-analytics/internal/domain"
)

// Category is the closed set of failure categories the database client layer
// attaches to driver errors.
type Category int

// Driver error categories.
const (
	CategoryUnknown Category = iota
	CategoryConnection
	CategoryValidation
	CategoryTimeout
	CategoryQuery
)

func (c Category) String() string {
	switch c {
	case CategoryConnection:
		return "connection"
	case CategoryValidation:
		return "validation"
	case CategoryTimeout:
		return "timeout"
	case CategoryQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error is a driver failure tagged with its category by the db layer.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with the category detected from the driver error it carries.
// A nil err yields nil, and an already tagged error is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Category: Categorize(err), Op: op, Err: err}
}

// Categorize inspects err and everything it wraps and returns the
// highest-priority category found.
func Categorize(err error) Category {
	found := categoriesOf(err)
	for _, c := range priority {
		if found[c] {
			return c
		}
	}
	return CategoryUnknown
}

// priority is the fixed order in which categories win when an error chain
// carries several signals.
var priority = []Category{CategoryConnection, CategoryValidation, CategoryTimeout, CategoryQuery}

func categoriesOf(err error) map[Category]bool {
	found := make(map[Category]bool)
	walk(err, func(e error) {
		switch v := e.(type) {
		case *Error:
			found[v.Category] = true
			return
		case *domain.ValidationError:
			found[CategoryValidation] = true
			return
		}
		if c := driverCategory(e); c != CategoryUnknown {
			found[c] = true
		}
	})
	return found
}

// walk visits err and every error reachable through Unwrap.
func walk(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, fn)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), fn)
	}
}

const errDBClosedText = "sql: database is closed"

// driverCategory recognises a single error value without unwrapping it.
func driverCategory(err error) Category {
	switch err {
	case driver.ErrBadConn, sql.ErrConnDone, syscall.ECONNREFUSED, syscall.ECONNRESET:
		return CategoryConnection
	case context.DeadlineExceeded:
		return CategoryTimeout
	case sql.ErrTxDone:
		return CategoryQuery
	}
	// database/sql does not export its closed-pool error.
	if err.Error() == errDBClosedText {
		return CategoryConnection
	}

	switch v := err.(type) {
	case sqlite3.Error:
		return sqliteCategory(v.Code)
	case *sqlite3.Error:
		return sqliteCategory(v.Code)
	case *net.OpError:
		return CategoryConnection
	case net.Error:
		if v.Timeout() {
			return CategoryTimeout
		}
		return CategoryConnection
	}
	return CategoryUnknown
}

func sqliteCategory(code sqlite3.ErrNo) Category {
	switch code {
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrAuth, sqlite3.ErrIoErr,
		sqlite3.ErrCorrupt, sqlite3.ErrPerm, sqlite3.ErrProtocol:
		return CategoryConnection
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig, sqlite3.ErrRange,
		sqlite3.ErrFormat:
		return CategoryValidation
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrInterrupt:
		return CategoryTimeout
	default:
		return CategoryQuery
	}
}
