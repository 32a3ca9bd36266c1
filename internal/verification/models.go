package verification

import (
	"net/url"

	"github.com/google/uuid"
)

// Category is the applicant type declared on the form.
type Category string

const (
	CategoryStudent  Category = "student"
	CategoryEmployee Category = "employee"
)

func (c Category) IsValid() bool {
	return c == CategoryStudent || c == CategoryEmployee
}

// DocumentKind names an uploaded document. The values double as multipart field names.
type DocumentKind string

const (
	DocCollegeIDPhoto      DocumentKind = "college_id_photo"
	DocGovIDPhoto          DocumentKind = "gov_id_photo"
	DocSelfie              DocumentKind = "selfie"
	DocSSCCertificate      DocumentKind = "ssc_certificate"
	DocGraduateCertificate DocumentKind = "graduate_certificate"
)

// DocumentKinds lists every kind in processing order.
var DocumentKinds = []DocumentKind{
	DocCollegeIDPhoto,
	DocGovIDPhoto,
	DocSelfie,
	DocSSCCertificate,
	DocGraduateCertificate,
}

// Label is the human name used in rejection messages.
func (k DocumentKind) Label() string {
	switch k {
	case DocCollegeIDPhoto:
		return "College ID"
	case DocGovIDPhoto:
		return "Gov ID"
	case DocSelfie:
		return "Selfie"
	case DocSSCCertificate:
		return "SSC"
	case DocGraduateCertificate:
		return "graduate certificate"
	}
	return string(k)
}

// Upload is one file as received from the client.
type Upload struct {
	Kind        DocumentKind
	Filename    string
	ContentType string
	Data        []byte
}

// Request is a single verification submission. It lives for one pipeline run.
type Request struct {
	Category     Category
	Name         string
	Email        string
	Contact      string
	CollegeName  string
	CollegeID    string
	GovernmentID string
	Documents    map[DocumentKind]Upload
}

// Document returns the upload for kind if one with content was provided.
func (r Request) Document(kind DocumentKind) (Upload, bool) {
	u, ok := r.Documents[kind]
	if !ok || len(u.Data) == 0 {
		return Upload{}, false
	}
	return u, true
}

// requiredKinds lists the documents that must be processed for this request.
func (r Request) requiredKinds() []DocumentKind {
	kinds := []DocumentKind{DocCollegeIDPhoto, DocGovIDPhoto, DocSelfie, DocSSCCertificate}
	if r.Category == CategoryEmployee {
		kinds = append(kinds, DocGraduateCertificate)
	}
	return kinds
}

// NormalizedDocument is an upload resolved to exactly one raster image.
type NormalizedDocument struct {
	Kind  DocumentKind
	MIME  string
	Image []byte
}

// FieldKey identifies a field parsed out of OCR text.
type FieldKey string

const (
	FieldName        FieldKey = "name"
	FieldIDNumber    FieldKey = "id_number"
	FieldDateOfBirth FieldKey = "date_of_birth"
)

// fieldLabels maps each field to the printed label searched for in OCR text.
var fieldLabels = map[FieldKey]string{
	FieldName:        "Name",
	FieldIDNumber:    "ID",
	FieldDateOfBirth: "DOB",
}

// ExtractedFields holds parsed values. A nil entry means the label was not found,
// which is distinct from an empty string.
type ExtractedFields map[FieldKey]*string

// Get returns the value for key and whether it was found.
func (f ExtractedFields) Get(key FieldKey) (string, bool) {
	v := f[key]
	if v == nil {
		return "", false
	}
	return *v, true
}

// FaceOutcome classifies a face comparison.
type FaceOutcome string

const (
	FaceMatched     FaceOutcome = "matched"
	FaceNotMatched  FaceOutcome = "not_matched"
	FaceNotDetected FaceOutcome = "not_detected"
	FaceError       FaceOutcome = "error"
)

// FaceMatchResult is the answer of the face matching capability.
// Distance is meaningful only when a face was found in both images.
type FaceMatchResult struct {
	Outcome  FaceOutcome
	Verified bool
	Distance float64
}

// FaceFailure is the degraded result used whenever comparison could not run.
func FaceFailure(outcome FaceOutcome) FaceMatchResult {
	return FaceMatchResult{Outcome: outcome, Verified: false, Distance: 1.0}
}

// StatusVerified is the final status sent downstream on acceptance.
const StatusVerified = "verified"

// Payload is the canonical record forwarded to the system of record.
type Payload struct {
	Category     Category
	Name         string
	Email        string
	Contact      string
	CollegeName  string
	CollegeID    string
	GovernmentID string
	Status       string
}

func newPayload(req Request) Payload {
	return Payload{
		Category:     req.Category,
		Name:         req.Name,
		Email:        req.Email,
		Contact:      req.Contact,
		CollegeName:  req.CollegeName,
		CollegeID:    req.CollegeID,
		GovernmentID: req.GovernmentID,
		Status:       StatusVerified,
	}
}

// Values encodes the payload as form values.
func (p Payload) Values() url.Values {
	v := url.Values{}
	v.Set("user_type", string(p.Category))
	v.Set("name", p.Name)
	v.Set("email", p.Email)
	v.Set("contact", p.Contact)
	v.Set("college_name", p.CollegeName)
	v.Set("college_id", p.CollegeID)
	v.Set("government_id", p.GovernmentID)
	v.Set("verification_status", p.Status)
	return v
}

// Verdict is the single terminal result of a verification.
// Exactly one of Payload (accepted) or Rejection (rejected) is set.
type Verdict struct {
	ID        uuid.UUID
	Accepted  bool
	Payload   *Payload
	Rejection *Rejection
}

func accept(id uuid.UUID, p Payload) Verdict {
	return Verdict{ID: id, Accepted: true, Payload: &p}
}

func reject(id uuid.UUID, r *Rejection) Verdict {
	return Verdict{ID: id, Rejection: r}
}

// Status is "verified" for accepted verdicts and the rejection reason otherwise.
func (v Verdict) Status() string {
	if v.Accepted {
		return StatusVerified
	}
	return string(v.Rejection.Reason)
}
