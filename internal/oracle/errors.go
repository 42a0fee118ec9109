package oracle

import (
	"errors"
	"fmt"
)

// ErrOracle matches every [*OracleError] via [errors.Is].
var ErrOracle = errors.New("oracle error")

// Kind classifies an oracle failure.
type Kind string

const (
	// KindUnreachable means the backing model could not be reached or
	// returned a transport-level error.
	KindUnreachable Kind = "unreachable"

	// KindTimeout means the per-call deadline expired.
	KindTimeout Kind = "timeout"

	// KindMalformed means the model replied with something that is not a
	// JSON object.
	KindMalformed Kind = "malformed"

	// KindSchemaViolation means the reply decoded but failed schema
	// validation.
	KindSchemaViolation Kind = "schema_violation"

	// KindInvalidRequest means the request itself was unusable (unbound
	// placeholder, missing template or schema).
	KindInvalidRequest Kind = "invalid_request"
)

// OracleError reports a failed oracle request. It is never silently
// converted into an empty result.
type OracleError struct {
	Kind     Kind
	Template string
	Err      error
}

func (e *OracleError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("oracle: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("oracle: %s (template %q): %v", e.Kind, e.Template, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrOracle].
func (e *OracleError) Is(target error) bool { return target == ErrOracle }

// KindOf returns the Kind of the first OracleError in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

func newError(kind Kind, template string, err error) *OracleError {
	return &OracleError{Kind: kind, Template: template, Err: err}
}
