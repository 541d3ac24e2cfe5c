package fsm

import "errors"

var (
	ErrDuplicateRegistration = errors.New("fsm: state id already registered")
	ErrInvalidIdentifier     = errors.New("fsm: invalid state id")
	ErrWriteOnceViolation    = errors.New("fsm: state already bound to a machine")
	ErrNotFound              = errors.New("fsm: no state of requested kind")
	ErrNilState              = errors.New("fsm: state is nil")
	ErrRegistrationClosed    = errors.New("fsm: registration closed")
	ErrTransitionLoop        = errors.New("fsm: too many chained transitions")
	ErrUnbound               = errors.New("fsm: state is not registered with a machine")
)
