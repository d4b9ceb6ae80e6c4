package core

import "fmt"

// Kind tags an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one unit of work: Success(Value),
// Failure(Err) or Cancelled. Exactly one is produced per spawned task.
type Outcome[V any] struct {
	Kind  Kind
	Value V
	Err   error
}

// Success builds a successful outcome.
func Success[V any](v V) Outcome[V] {
	return Outcome[V]{Kind: KindSuccess, Value: v}
}

// Failure builds a failed outcome. Caller-defined errors are carried verbatim.
func Failure[V any](err error) Outcome[V] {
	return Outcome[V]{Kind: KindFailure, Err: err}
}

// Cancelled builds a cancelled outcome.
func Cancelled[V any]() Outcome[V] {
	return Outcome[V]{Kind: KindCancelled, Err: ErrCancelled}
}

func (o Outcome[V]) IsSuccess() bool   { return o.Kind == KindSuccess }
func (o Outcome[V]) IsFailure() bool   { return o.Kind == KindFailure }
func (o Outcome[V]) IsCancelled() bool { return o.Kind == KindCancelled }

// Unwrap returns the value and a non-nil error for Failure and Cancelled.
func (o Outcome[V]) Unwrap() (V, error) {
	return o.Value, o.Err
}

func (o Outcome[V]) String() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("Success(%v)", o.Value)
	case KindFailure:
		return fmt.Sprintf("Failure(%v)", o.Err)
	default:
		return o.Kind.String()
	}
}

// result is the type-erased outcome that crosses the outcome channel.
type result struct {
	kind  Kind
	value any
	err   error
}

func typed[V any](r result) Outcome[V] {
	switch r.kind {
	case KindSuccess:
		v, _ := r.value.(V)
		return Success(v)
	case KindCancelled:
		return Cancelled[V]()
	default:
		return Failure[V](r.err)
	}
}
