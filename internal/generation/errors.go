package generation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code is the machine-readable half of every generation failure. Codes are
// stable: they land on revision.error_json and clients key off them.
type Code string

const (
	CodeCredentialMissing Code = "CredentialMissing"
	CodeCredentialInvalid Code = "CredentialInvalid"
	CodeNoOutputProduced  Code = "NoOutputProduced"
	CodeTimeout           Code = "Timeout"
	CodeProviderTransport Code = "ProviderTransportError"
	CodeProviderOperation Code = "ProviderOperationError"
	CodeProviderNotFound  Code = "ProviderNotFound"
	CodeSegmentBusy       Code = "SegmentBusy"

	// Codes below are raised outside the provider boundary but land on the
	// same error_json surface.
	CodeRateMismatch      Code = "RateMismatch"
	CodeTimelineOverlap   Code = "InvalidTimelineOverlap"
	CodeNoStorageProvider Code = "NoStorageProviderAvailable"
	CodeUploadFailed      Code = "UploadFailed"
	CodeRevisionCycle     Code = "RevisionCycle"
	CodeInternal          Code = "InternalError"
)

type Error struct {
	Code     Code
	Message  string
	Provider string
	// Payload carries the provider-native error body for
	// ProviderOperationError; it is stored, never shown raw to the user.
	Payload json.RawMessage
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "generation error"
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s (provider=%s): %s", e.Code, e.Provider, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code Code, provider, message string) *Error {
	return &Error{Code: code, Provider: provider, Message: message}
}

// CodeOf extracts the taxonomy code from err, or "" when err is not ours.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// IsTransient reports whether err is a transport-level failure the poll loop
// should silently retry. Operation-level errors are terminal.
func IsTransient(err error) bool {
	return CodeOf(err) == CodeProviderTransport
}
