package noise

import "errors"

// Validation and setup errors. All of them are returned before any sample
// buffer is allocated.
var (
	ErrArgumentCount     = errors.New("wrong number of arguments")
	ErrInvalidNoiseType  = errors.New("invalid noise type")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrSubsystemInit     = errors.New("subsystem initialization failed")
)
