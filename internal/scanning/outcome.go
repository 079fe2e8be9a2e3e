package scanning

import (
	"errors"
	"fmt"
)

// Kind classifies the result of a scan
type Kind string

const (
	KindSuccess          Kind = "success"
	KindInvalidInput     Kind = "invalid_input"
	KindUnreadable       Kind = "unreadable"
	KindNotAnInvoice     Kind = "not_an_invoice"
	KindParseFailure     Kind = "parse_failure"
	KindTransientFailure Kind = "transient_failure"
	KindInternalError    Kind = "internal_error"
)

// InvalidKind narrows an invalid_input failure
type InvalidKind string

const (
	InvalidBadType     InvalidKind = "bad-type"
	InvalidTooLarge    InvalidKind = "too-large"
	InvalidMissingFile InvalidKind = "missing-file"
)

// User-facing reasons. Provider errors and raw model output never reach the caller.
const (
	ReasonMissingFile  = "No file uploaded"
	ReasonBadType      = "Unsupported file type. Please upload a PNG or JPEG image."
	ReasonTooLarge     = "File is too large. Maximum size is 10MB."
	ReasonUnreadable   = "No text could be detected in the image. Please upload a clearer image."
	ReasonNotAnInvoice = "The uploaded file is not recognized as an invoice."
	ReasonParseFailure = "Failed to parse the extracted data. The invoice format may not be supported."
	ReasonTransient    = "The scanning service is temporarily unavailable. Please try again."
	ReasonInternal     = "Internal server error"
)

// ScanError is the failure produced by a pipeline stage
type ScanError struct {
	Kind    Kind
	Invalid InvalidKind
	// Detail is the diagnostic cause, e.g. "malformed JSON" or "incomplete structure"
	Detail string
	// Raw holds the model output for parse failures; logged, never returned to users
	Raw string
	Err error
}

func (e *ScanError) Error() string {
	msg := string(e.Kind)
	if e.Invalid != "" {
		msg += "(" + string(e.Invalid) + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func invalidInput(kind InvalidKind, detail string) *ScanError {
	return &ScanError{Kind: KindInvalidInput, Invalid: kind, Detail: detail}
}

// Outcome is the tagged result of one scan request
type Outcome struct {
	Kind    Kind
	Invalid InvalidKind
	Draft   *Draft
	Reason  string
	// RawText is the completion text for parse failures
	RawText string
}

// Success reports whether the scan produced a draft
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// outcomeFromError classifies a stage error. Anything that is not a *ScanError is internal.
func outcomeFromError(err error) Outcome {
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		return Outcome{Kind: KindInternalError, Reason: ReasonInternal}
	}

	out := Outcome{Kind: scanErr.Kind, Invalid: scanErr.Invalid, RawText: scanErr.Raw}
	switch scanErr.Kind {
	case KindInvalidInput:
		switch scanErr.Invalid {
		case InvalidTooLarge:
			out.Reason = ReasonTooLarge
		case InvalidBadType:
			out.Reason = ReasonBadType
		default:
			out.Reason = ReasonMissingFile
		}
	case KindUnreadable:
		out.Reason = ReasonUnreadable
	case KindNotAnInvoice:
		out.Reason = ReasonNotAnInvoice
	case KindParseFailure:
		out.Reason = ReasonParseFailure
	case KindTransientFailure:
		out.Reason = ReasonTransient
	default:
		out.Kind = KindInternalError
		out.Reason = ReasonInternal
	}
	return out
}
