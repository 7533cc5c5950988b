// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidReference
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidReference:
		return "invalid_reference"
	default:
		return "internal"
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Error is the error type returned by every service operation for
// expected failures. Anything else a service returns is internal.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, KindInternal for non-service errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Messages shared with existing clients.
const (
	MsgNotAuthenticated   = "Not authenticated"
	MsgForbidden          = "Forbidden"
	MsgPostNotFound       = "Post not found"
	MsgInvalidCategory    = "Invalid category"
	MsgCategoryExists     = "Category exists"
	MsgEmailInUse         = "Email already in use"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidToken       = "Invalid token"
	MsgUserNotFound       = "User not found"
	MsgValidation         = "Validation failed"
)

func validationError(fields ...FieldError) *Error {
	msg := MsgValidation
	if len(fields) > 0 {
		msg = fields[0].Msg
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: MsgForbidden}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func invalidReference(msg string) *Error {
	return &Error{Kind: KindInvalidReference, Message: msg}
}
