package verification

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateIntake checks structural completeness of a request. The first failing
// check wins: category, basic fields, category-specific requirements, then files.
// Email syntax is checked last so presence ordering is unaffected.
func ValidateIntake(req Request) *Rejection {
	if req.Category == "" {
		return newMissingField("user_type")
	}
	if !req.Category.IsValid() {
		return newInvalidField("user_type")
	}

	basic := []struct {
		name  string
		value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"contact", req.Contact},
		{"government_id", req.GovernmentID},
	}
	for _, f := range basic {
		if blank(f.value) {
			return newMissingField(f.name)
		}
	}

	switch req.Category {
	case CategoryStudent:
		if blank(req.CollegeName) {
			return newMissingField("college_name")
		}
		if blank(req.CollegeID) {
			return newMissingField("college_id")
		}
	case CategoryEmployee:
		if _, ok := req.Document(DocGraduateCertificate); !ok {
			return newMissingDocument(DocGraduateCertificate)
		}
	}

	for _, kind := range []DocumentKind{DocCollegeIDPhoto, DocGovIDPhoto, DocSelfie, DocSSCCertificate} {
		if _, ok := req.Document(kind); !ok {
			return newMissingDocument(kind)
		}
	}

	if err := validate.Var(req.Email, "required,email"); err != nil {
		return newInvalidField("email")
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
