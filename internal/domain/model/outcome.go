package model

import "net/http"

type ResponseKind string

const (
	ResponsePong    ResponseKind = "pong"
	ResponseMessage ResponseKind = "message"
)

// CommandOutcome is the result of dispatching one interaction.
// HTTPStatus stays 200 for every outcome: Discord treats any other status on an
// interaction callback as a failed delivery.
type CommandOutcome struct {
	Response   ResponseKind
	Content    string
	HTTPStatus int
	Err        *CommandError
}

func Pong() CommandOutcome {
	return CommandOutcome{Response: ResponsePong, HTTPStatus: http.StatusOK}
}

func Message(content string) CommandOutcome {
	return CommandOutcome{Response: ResponseMessage, Content: content, HTTPStatus: http.StatusOK}
}

func Failure(content string, err *CommandError) CommandOutcome {
	return CommandOutcome{Response: ResponseMessage, Content: content, HTTPStatus: http.StatusOK, Err: err}
}

func (o CommandOutcome) Succeeded() bool {
	return o.Err == nil
}
