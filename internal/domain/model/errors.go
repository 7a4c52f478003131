package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrDuplicateSubscription = errors.New("subscription already exists")
)

type ErrorKind string

const (
	ErrKindValidation     ErrorKind = "validation"
	ErrKindStore          ErrorKind = "store"
	ErrKindNotFound       ErrorKind = "not_found"
	ErrKindPublish        ErrorKind = "publish"
	ErrKindForbidden      ErrorKind = "forbidden"
	ErrKindUnknownCommand ErrorKind = "unknown_command"
	ErrKindUnknownType    ErrorKind = "unknown_type"
)

// CommandError describes a failed command with enough context for logging and
// reporting without parsing the message.
type CommandError struct {
	Kind      ErrorKind
	Command   string
	UserID    string
	ChannelID string
	Err       error
}

func (e *CommandError) Error() string {
	parts := []string{string(e.Kind)}
	if e.Command != "" {
		parts = append(parts, "command="+e.Command)
	}
	if e.UserID != "" {
		parts = append(parts, "user="+e.UserID)
	}
	if e.ChannelID != "" {
		parts = append(parts, "channel="+e.ChannelID)
	}
	msg := strings.Join(parts, " ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Reportable is true for failures that ops should hear about: store and
// publish errors. Bad input from users is not reportable.
func (e *CommandError) Reportable() bool {
	return e.Kind == ErrKindStore || e.Kind == ErrKindPublish
}

// PublishError summarises the failed channels of a report.
type PublishError struct {
	Failed []PublishResult
}

func (e *PublishError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s (%s)", f.ChannelID, f.StatusDetail)
	}
	return fmt.Sprintf("%d channel post(s) failed: %s", len(e.Failed), strings.Join(parts, ", "))
}
