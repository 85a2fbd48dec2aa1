package core

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	RemoteUnavailable
	MalformedResponse
	NoActiveConversation
	RecognitionError
	InvalidModelSelection
)

func (k ErrorKind) String() string {
	switch k {
	case RemoteUnavailable:
		return "remote unavailable"
	case MalformedResponse:
		return "malformed response"
	case NoActiveConversation:
		return "no active conversation"
	case RecognitionError:
		return "recognition error"
	case InvalidModelSelection:
		return "invalid model selection"
	default:
		return "unknown"
	}
}

// Error is returned by the conversation client and the text extraction adapter
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in the chain, KindUnknown otherwise
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
