package prescription

import "errors"

var (
	ErrIndexOutOfRange = errors.New("medication index out of range")
	ErrUnknownField    = errors.New("unknown medication field")
	ErrInvalidDraft    = errors.New("draft is incomplete")
	ErrNotFound        = errors.New("prescription not found")
	ErrSubmitInFlight  = errors.New("draft submission already in flight")
	ErrDecode          = errors.New("invalid prescription payload")
)
