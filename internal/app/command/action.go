package command

import (
	"time"

	"github.com/jose-valero/soup-bot/internal/app/gallery"
)

// Action is what the transport must do in answer to an invocation:
// Reply, ReplyWithSession or Fail.
type Action interface {
	action()
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a transport-neutral rich message.
type Embed struct {
	Title       string
	Description string
	Fields      []Field
	ImageURL    string
	Footer      string
}

type Reply struct {
	Content       string
	Embed         *Embed
	AttachmentURL string
}

// ReplyWithSession starts a paginated session; View is its first render.
type ReplyWithSession struct {
	View gallery.View
}

type Reason string

const (
	ReasonUnknownCommand    Reason = "unknown_command"
	ReasonMissingOption     Reason = "missing_option"
	ReasonRateLimited       Reason = "rate_limited"
	ReasonInsufficientMedia Reason = "insufficient_media"
	ReasonOutOfRange        Reason = "out_of_range"
	ReasonSessionExpired    Reason = "session_expired"
	ReasonHandlerError      Reason = "handler_error"
)

// Fail is a controlled failure. Detail is safe to show to the user.
type Fail struct {
	Reason     Reason
	RetryAfter time.Duration
	Detail     string
}

func (Reply) action()            {}
func (ReplyWithSession) action() {}
func (Fail) action()             {}

// UserError is a business-rule rejection raised by a handler. Unlike any other
// handler error its message reaches the user.
type UserError struct {
	Reason Reason
	Msg    string
	Err    error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *UserError) Unwrap() error { return e.Err }

func Reject(reason Reason, msg string, cause error) error {
	return &UserError{Reason: reason, Msg: msg, Err: cause}
}
