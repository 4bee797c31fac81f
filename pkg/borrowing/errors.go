package borrowing

import (
	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/errcodes"
)

// Kind classifies why a borrowing action was rejected.
type Kind int

const (
	InvalidTransition Kind = iota + 1
	MissingActor
	UnknownActor
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingActor      = errors.New("missing actor")
	ErrUnknownActor      = errors.New("unknown actor")
)

var kindErrors = map[Kind]error{
	InvalidTransition: ErrInvalidTransition,
	MissingActor:      ErrMissingActor,
	UnknownActor:      ErrUnknownActor,
}

const (
	msgAlreadyBorrowed = "Book is already borrowed."
	msgNotBorrowed     = "Book is not borrowed."
	msgMissingActor    = "User ID is not set in x-User-Id header."
	msgUnknownActor    = "User ID in x-User-Id header not exists."
)

// Problem is a single reason an action was rejected. An empty Field means the
// problem isn't tied to a request field.
type Problem struct {
	Kind    Kind
	Field   string
	Message string
}

// ValidationError collects every problem found while validating an action.
// It renders as field errors, so the error handler responds with e.g.
// {"action": ["Book is already borrowed."]}.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) add(kind Kind, field, msg string) {
	e.Problems = append(e.Problems, Problem{Kind: kind, Field: field, Message: msg})
}

func (e *ValidationError) empty() bool {
	return len(e.Problems) == 0
}

func (e *ValidationError) Error() string {
	return e.FieldErrors().Error()
}

// Kinds lists the problem kinds in the order they were found.
func (e *ValidationError) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.Problems))
	for _, p := range e.Problems {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}

// Is matches ErrInvalidTransition, ErrMissingActor and ErrUnknownActor.
func (e *ValidationError) Is(target error) bool {
	for _, p := range e.Problems {
		if kindErrors[p.Kind] == target {
			return true
		}
	}
	return false
}

// As lets errors.As pull the rendered field errors out of a wrapped
// ValidationError.
func (e *ValidationError) As(target interface{}) bool {
	fe, ok := target.(*errcodes.FieldErrors)
	if !ok {
		return false
	}
	*fe = e.FieldErrors()
	return true
}

func (e *ValidationError) FieldErrors() errcodes.FieldErrors {
	fe := errcodes.FieldErrors{}
	for _, p := range e.Problems {
		field := p.Field
		if field == "" {
			field = errcodes.NonFieldErrorsKey
		}
		fe.Add(field, p.Message)
	}
	return fe
}
