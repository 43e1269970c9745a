package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Kind classifies a workflow failure.
type Kind string

const (
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindMissingData       Kind = "MISSING_DATA"
	KindValidation        Kind = "VALIDATION_FAILED"
)

// Sentinels for errors.Is checks against a failure kind.
var (
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrMissingData       = &Error{Kind: KindMissingData}
	ErrValidation        = &Error{Kind: KindValidation}
)

// Error is the single failure type returned by the engine.
type Error struct {
	Kind    Kind
	Detail  string
	From    domain.RequestStatus
	To      domain.RequestStatus
	Allowed []domain.RequestStatus
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	return e.Detail
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrMissingData) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the failure kind of err, or "" when err is not a workflow error.
func KindOf(err error) Kind {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}

func missingData(format string, args ...any) error {
	return &Error{Kind: KindMissingData, Detail: fmt.Sprintf(format, args...)}
}

func permissionDenied(format string, args ...any) error {
	return &Error{Kind: KindPermissionDenied, Detail: fmt.Sprintf(format, args...)}
}

func validationFailed(format string, args ...any) error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

func invalidTransition(from, to domain.RequestStatus, allowed []domain.RequestStatus) error {
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, string(s))
	}
	return &Error{
		Kind:    KindInvalidTransition,
		Detail:  fmt.Sprintf("cannot transition from %s to %s; valid transitions: [%s]", from, to, strings.Join(names, ", ")),
		From:    from,
		To:      to,
		Allowed: allowed,
	}
}
