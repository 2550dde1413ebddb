package transaction

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be a positive finite number")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrMissingParticipants = errors.New("sender and receiver are required")
	ErrLoadParticipants    = errors.New("load transactions must credit the sender's own account")
	ErrDecode              = errors.New("invalid transaction payload")
)
