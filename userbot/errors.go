// Copyright (c) 2025 ariusbronte

package userbot

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned (possibly wrapped) by Transport.FetchBatch
	// when the long poll key has lapsed and the cursor must be re-bootstrapped.
	ErrSessionExpired = errors.New("[SessionExpired] long poll session expired")

	ErrClosed         = errors.New("[Closed] bot is closed")
	ErrAlreadyRunning = errors.New("[AlreadyRunning] bot is already running")
	ErrNotConfigured  = errors.New("[NoTransport] bot has no transport")
)

// ValidationError reports a bad registration or configuration argument.
// It is always returned synchronously to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[ValidationError] %s: %s", e.Field, e.Reason)
}

// RoutingError reports an event that cannot be routed: missing required
// fields, an unknown chat action kind, or a sticker event without exactly
// one sticker.
type RoutingError struct {
	MessageID int64
	PeerID    int64
	Reason    string
}

func newRoutingError(m *Message, reason string) *RoutingError {
	return &RoutingError{MessageID: m.ID, PeerID: m.PeerID, Reason: reason}
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("[RoutingError] message %d in peer %d: %s", e.MessageID, e.PeerID, e.Reason)
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("[HandlerPanic] recovered from panic: %v", e.Value)
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsRoutingError(err error) bool {
	var r *RoutingError
	return errors.As(err, &r)
}
