package reserve

import "errors"

// Kind classifies a reservation failure. The transport boundary maps kinds to
// status codes; the core never carries transport concerns.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindOutOfStock
	KindStoreFailure
	KindCacheFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindOutOfStock:
		return "out of stock"
	case KindStoreFailure:
		return "store failure"
	case KindCacheFailure:
		return "cache failure"
	default:
		return "unknown"
	}
}

// Error is a reservation failure tagged with its Kind.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func wrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: err}
}

// KindOf extracts the Kind carried by err, or KindUnknown when err does not
// originate from this package.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}
