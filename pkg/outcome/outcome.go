// Package outcome defines the tagged result returned by every storefront
// operation that must never surface a raw error to its caller.
package outcome

import (
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"gorm.io/gorm"
)

// Outcome is the uniform success/failure result of a storefront operation.
type Outcome struct {
	OK      bool           `json:"ok"`
	Kind    pkgerrors.Code `json:"kind,omitempty"`
	Message string         `json:"message"`

	cause error
}

// Success builds a successful outcome carrying a human-readable message.
func Success(message string) Outcome {
	return Outcome{OK: true, Message: message}
}

// Failure builds a failed outcome of the given kind.
func Failure(kind pkgerrors.Code, message string) Outcome {
	return Outcome{Kind: kind, Message: message, cause: pkgerrors.New(kind, message)}
}

// FromError converts err into a failed outcome. Typed errors keep their code,
// and server-side codes carry the public message instead of the internal one.
// gorm not-found maps to NOT_FOUND and anything else becomes INTERNAL.
func FromError(err error) Outcome {
	if err == nil {
		return Outcome{OK: true}
	}
	if typed := pkgerrors.As(err); typed != nil {
		msg := typed.Message()
		meta := pkgerrors.MetadataFor(typed.Code())
		if msg == "" || meta.HTTPStatus >= http.StatusInternalServerError {
			msg = meta.PublicMessage
		}
		return Outcome{Kind: typed.Code(), Message: msg, cause: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Outcome{Kind: pkgerrors.CodeNotFound, Message: pkgerrors.MetadataFor(pkgerrors.CodeNotFound).PublicMessage, cause: err}
	}
	return Outcome{
		Kind:    pkgerrors.CodeInternal,
		Message: pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage,
		cause:   pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error"),
	}
}

// Err returns the underlying error for a failed outcome, nil on success.
func (o Outcome) Err() error {
	if o.OK {
		return nil
	}
	if o.cause != nil {
		return o.cause
	}
	return pkgerrors.New(o.Kind, o.Message)
}

// Is reports whether the outcome failed with the given kind.
func (o Outcome) Is(kind pkgerrors.Code) bool {
	return !o.OK && o.Kind == kind
}
