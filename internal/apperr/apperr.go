// Package apperr defines the failure taxonomy shared by services and the
// HTTP boundary. Services return *Error values; the respond package maps
// each kind to a status code and a user-safe message exactly once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind tags a failure with its domain meaning.
type Kind string

const (
	KindAlreadyExists       Kind = "ALREADY_EXISTS"
	KindInvalidCredentials  Kind = "INVALID_CREDENTIALS"
	KindInvalidToken        Kind = "INVALID_TOKEN"
	KindTokenExpired        Kind = "TOKEN_EXPIRED"
	KindInvalidTokenSubject Kind = "INVALID_TOKEN_SUBJECT"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindTaskNotFound        Kind = "TASK_NOT_FOUND"
	KindInvalidAuthorRef    Kind = "INVALID_AUTHOR_REF"
	KindValidation          Kind = "VALIDATION"
	KindInternal            Kind = "INTERNAL"
)

// Error is a tagged failure with an optional wrapped cause. Message is safe
// to surface to clients; the cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error while keeping it reachable via errors.Is/As.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus is the single kind-to-status mapping used at the boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAlreadyExists:
		return http.StatusConflict
	case KindInvalidCredentials, KindInvalidToken, KindTokenExpired,
		KindInvalidTokenSubject, KindUnauthorized:
		return http.StatusUnauthorized
	case KindTaskNotFound:
		return http.StatusNotFound
	case KindInvalidAuthorRef, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Postgres SQLSTATE codes the store is expected to raise.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromPG translates a Postgres error into the taxonomy by SQLSTATE.
// Unrecognized codes and non-Postgres errors become KindInternal.
func FromPG(err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Wrap(KindAlreadyExists, "resource already exists", err)
		case pgForeignKeyViolation:
			return Wrap(KindInvalidAuthorRef, "invalid foreign key reference", err)
		}
	}
	return Wrap(KindInternal, "internal server error", err)
}
