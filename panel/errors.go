package panel

import (
	"errors"
	"fmt"

	client "github.com/caarlos0/homekit-totalconnect"
)

var (
	ErrCommandRejected = errors.New("command rejected")
	ErrInvalidUserCode = errors.New("invalid user code")
)

// CommandError is returned when the service declines an arm/disarm request.
// Rejections and invalid user codes read the same to the user; use errors.Is
// with ErrCommandRejected or ErrInvalidUserCode to tell them apart.
type CommandError struct {
	Action client.Action
	Name   string
	Reason client.Rejection
	Code   client.ResultCode
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("TotalConnect failed to %s %s.", e.Action.Verb(), e.Name)
}

func (e *CommandError) Unwrap() error {
	if e.Reason == client.RejectionInvalidUserCode {
		return ErrInvalidUserCode
	}
	return ErrCommandRejected
}
