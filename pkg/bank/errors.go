package bank

import "fmt"

type LoadErrorKind int

const (
	MalformedSchema LoadErrorKind = iota + 1
	DuplicateValue
	TeamCountMismatch
)

func (k LoadErrorKind) String() string {
	switch k {
	case MalformedSchema:
		return "MalformedSchema"
	case DuplicateValue:
		return "DuplicateValue"
	case TeamCountMismatch:
		return "TeamCountMismatch"
	default:
		return fmt.Sprintf("LoadErrorKind(%d)", int(k))
	}
}

// ParseLoadErrorKind is the inverse of LoadErrorKind.String.
func ParseLoadErrorKind(s string) (LoadErrorKind, bool) {
	for _, k := range []LoadErrorKind{MalformedSchema, DuplicateValue, TeamCountMismatch} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// LoadError reports why a question bank was rejected.
type LoadError struct {
	Kind   LoadErrorKind
	Detail string
}

var (
	ErrMalformedSchema   = &LoadError{Kind: MalformedSchema}
	ErrDuplicateValue    = &LoadError{Kind: DuplicateValue}
	ErrTeamCountMismatch = &LoadError{Kind: TeamCountMismatch}
)

func newLoadError(kind LoadErrorKind, format string, a ...interface{}) *LoadError {
	return &LoadError{Kind: kind, Detail: fmt.Sprintf(format, a...)}
}

func (e *LoadError) Error() string {
	if e.Detail == "" {
		return "load question bank: " + e.Kind.String()
	}
	return fmt.Sprintf("load question bank: %s: %s", e.Kind, e.Detail)
}

// Is matches any LoadError of the same kind.
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
