// Package apperr classifies infrastructure failures into a small set of kinds
// and codes, each with a user-facing message and an HTTP status.
package apperr

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	KindAuth       Kind = "auth"
	KindDatabase   Kind = "database"
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
)

type Code string

const (
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTokenExpired Code = "token_expired"

	CodeConnection Code = "connection"
	CodeQuery      Code = "query"
	CodeNotFound   Code = "not_found"
	CodeDuplicate  Code = "duplicate"

	CodeOffline       Code = "offline"
	CodeRequestFailed Code = "request_failed"
	CodeTimeout       Code = "timeout"

	CodeInvalid Code = "invalid"
)

type Error struct {
	Kind    Kind
	Code    Code
	Op      string
	Context map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + "/" + string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, code Code, op string, err error) *Error {
	return &Error{Kind: kind, Code: code, Op: op, Err: err}
}

func (e *Error) With(key string, val any) *Error {
	if e == nil {
		return nil
	}
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = val
	return e
}

func Validation(op string, err error) *Error {
	return New(KindValidation, CodeInvalid, op, err)
}

// Wrap tags err with the code Classify infers for it. Errors that are
// already tagged are returned unchanged, nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if c := Classify(err); c != nil {
		c.Op = op
		return c
	}
	return New(KindDatabase, CodeQuery, op, err)
}

// Classify maps driver and transport errors to a tagged error. It returns nil
// when err carries no recognisable signal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(KindDatabase, CodeNotFound, "", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return New(KindDatabase, CodeDuplicate, "", err)
		case "23503":
			return New(KindDatabase, CodeNotFound, "", err)
		case "22P02", "23502", "23514", "22001":
			return New(KindValidation, CodeInvalid, "", err)
		default:
			return New(KindDatabase, CodeQuery, "", err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return New(KindDatabase, CodeConnection, "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindNetwork, CodeTimeout, "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return New(KindNetwork, CodeTimeout, "", err)
		}
		return New(KindNetwork, CodeOffline, "", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return New(KindNetwork, CodeOffline, "", err)
	}

	return nil
}

func Is(err error, kind Kind, code Code) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Kind == kind && ae.Code == code
}

var messages = map[Code]string{
	CodeUnauthorized:  "Please sign in to continue.",
	CodeForbidden:     "You do not have permission to perform this action.",
	CodeTokenExpired:  "Your session has expired. Please sign in again.",
	CodeConnection:    "Unable to reach the database. Please try again later.",
	CodeQuery:         "A database error occurred while processing your request.",
	CodeNotFound:      "The requested record was not found.",
	CodeDuplicate:     "A record with the same details already exists.",
	CodeOffline:       "The service is unreachable. Check your connection and try again.",
	CodeRequestFailed: "The request to an upstream service failed.",
	CodeTimeout:       "The request timed out. Please try again.",
	CodeInvalid:       "Some of the provided data is invalid.",
}

func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if m, ok := messages[ae.Code]; ok {
			return m
		}
	}
	return "Something went wrong. Please try again."
}

func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case CodeUnauthorized, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicate:
		return http.StatusConflict
	case CodeInvalid:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeOffline, CodeRequestFailed:
		return http.StatusBadGateway
	case CodeConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
