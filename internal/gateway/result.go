package gateway

import (
	"encoding/json"
	"errors"

	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
)

type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"
	KindValidation     ErrorKind = "validation"
	KindProtected      ErrorKind = "protected"
	KindInfrastructure ErrorKind = "infrastructure"
)

// ResultError is the error variant of a gateway result.
type ResultError struct {
	Kind    ErrorKind
	Message string
	Context map[string]any
}

// Result is the tagged outcome of a dispatched operation: a value payload,
// an error descriptor, or the debounced sentinel. Callers must branch on
// the variant; there is no untyped payload map to poke at.
type Result struct {
	value     map[string]any
	err       *ResultError
	debounced bool
}

func OK(value map[string]any) Result {
	if value == nil {
		value = map[string]any{}
	}
	return Result{value: value}
}

func Fail(kind ErrorKind, message string, context map[string]any) Result {
	return Result{err: &ResultError{Kind: kind, Message: message, Context: context}}
}

// FailFromErr classifies an error into the gateway taxonomy.
func FailFromErr(err error, context map[string]any) Result {
	kind := KindInfrastructure
	switch {
	case errors.Is(err, pkgerr.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, pkgerr.ErrInvalidArgument):
		kind = KindValidation
	case errors.Is(err, pkgerr.ErrProtected):
		kind = KindProtected
	}
	return Fail(kind, err.Error(), context)
}

func Debounced() Result {
	return Result{debounced: true}
}

func (r Result) IsDebounced() bool { return r.debounced }

func (r Result) Value() (map[string]any, bool) {
	if r.err != nil || r.debounced {
		return nil, false
	}
	return r.value, true
}

func (r Result) Err() (*ResultError, bool) {
	return r.err, r.err != nil
}

// Payload renders the wire shape consumed by the external dispatcher:
// the value map, {"error": message, ...context}, or {"status":"debounced"}.
func (r Result) Payload() map[string]any {
	switch {
	case r.debounced:
		return map[string]any{"status": "debounced"}
	case r.err != nil:
		out := map[string]any{"error": r.err.Message}
		for k, v := range r.err.Context {
			out[k] = v
		}
		return out
	default:
		return r.value
	}
}

// toMap flattens a typed payload into the map shape results carry.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
