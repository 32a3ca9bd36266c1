package verification

import (
	"errors"
	"fmt"
)

// Reason is the category of a rejection.
type Reason string

const (
	ReasonMissingField        Reason = "missing_field"
	ReasonInvalidField        Reason = "invalid_field"
	ReasonMissingDocument     Reason = "missing_document"
	ReasonUnsupportedDocument Reason = "unsupported_document"
	ReasonTooBlurry           Reason = "too_blurry"
	ReasonContentCheckFailed  Reason = "content_check_failed"
	ReasonFaceMismatch        Reason = "face_mismatch"
	ReasonDeliveryFailed      Reason = "delivery_failed"
	ReasonInternalError       Reason = "internal_error"
)

// Rule identifies the consistency check behind a content_check_failed rejection.
type Rule string

const (
	RulePassStatus     Rule = "pass_status"
	RuleNameSimilarity Rule = "name_similarity"
	RuleIDMismatch     Rule = "id_mismatch"
	RuleDOBMismatch    Rule = "dob_mismatch"
)

// Class separates applicant faults from service faults.
type Class string

const (
	ClassClient Class = "client_error"
	ClassServer Class = "server_error"
)

// Rejection is a structured verdict failure. It implements error so stages
// can return it directly and callers can recover it with errors.As.
type Rejection struct {
	Reason   Reason
	Rule     Rule
	Field    string
	Document DocumentKind
	Message  string
	Err      error
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return string(r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Class reports whether the rejection is the applicant's or the service's fault.
func (r *Rejection) Class() Class {
	switch r.Reason {
	case ReasonDeliveryFailed, ReasonInternalError:
		return ClassServer
	}
	return ClassClient
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func newMissingField(field string) *Rejection {
	return &Rejection{
		Reason:  ReasonMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func newMissingDocument(kind DocumentKind) *Rejection {
	return &Rejection{
		Reason:   ReasonMissingDocument,
		Field:    string(kind),
		Document: kind,
		Message:  fmt.Sprintf("%s is required", kind),
	}
}

// newInvalidField rejects a field that is present but malformed.
func newInvalidField(field string) *Rejection {
	return &Rejection{
		Reason:  ReasonInvalidField,
		Field:   field,
		Message: fmt.Sprintf("%s is present but invalid", field),
	}
}

// NewUnsupportedDocument rejects an upload whose type cannot be turned into an image.
func NewUnsupportedDocument(kind DocumentKind, mime string) *Rejection {
	return &Rejection{
		Reason:   ReasonUnsupportedDocument,
		Document: kind,
		Message:  fmt.Sprintf("Unsupported file type for %s: %s", kind.Label(), mime),
	}
}

// NewTooBlurry rejects a document that failed the sharpness gate.
func NewTooBlurry(kind DocumentKind) *Rejection {
	return &Rejection{
		Reason:   ReasonTooBlurry,
		Document: kind,
		Message:  fmt.Sprintf("%s is too blurry to read. Please re-upload.", kind.Label()),
	}
}

func newContentCheck(rule Rule, kind DocumentKind, msg string) *Rejection {
	return &Rejection{
		Reason:   ReasonContentCheckFailed,
		Rule:     rule,
		Document: kind,
		Message:  msg,
	}
}

func newFaceMismatch(distance float64) *Rejection {
	return &Rejection{
		Reason:   ReasonFaceMismatch,
		Document: DocSelfie,
		Message:  fmt.Sprintf("Face mismatch (distance: %.2f). Please re-upload selfie.", distance),
	}
}

func newDeliveryFailed(err error) *Rejection {
	return &Rejection{
		Reason:  ReasonDeliveryFailed,
		Message: "Verification passed but the record could not be delivered",
		Err:     err,
	}
}

func newInternalError(err error) *Rejection {
	return &Rejection{
		Reason:  ReasonInternalError,
		Message: "Internal error during verification",
		Err:     err,
	}
}
