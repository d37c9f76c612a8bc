package tracker

// RollError is a tracker outcome reported back to the operator. None of
// them is fatal; the dispatcher turns them into replies.
type RollError string

// Error implements the error interface.
func (e RollError) Error() string {
	return string(e)
}

const (
	ErrNotRunning      RollError = "roll is not running"
	ErrNothingToSave   RollError = "nothing to save: no active participants"
	ErrInvalidDuration RollError = "inactivity window must be at least 1 minute"
)
