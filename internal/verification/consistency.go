package verification

import (
	"fmt"
	"strings"
)

// Evidence is everything the content checks look at: the declared request,
// the OCR text per document, and the fields parsed out of that text.
type Evidence struct {
	Request Request
	Texts   map[DocumentKind]string
	Fields  map[DocumentKind]ExtractedFields
}

// documentFields lists which fields are parsed from each OCR'd document.
var documentFields = map[DocumentKind][]FieldKey{
	DocCollegeIDPhoto:      {FieldName, FieldIDNumber},
	DocGovIDPhoto:          {FieldName, FieldIDNumber, FieldDateOfBirth},
	DocSSCCertificate:      {FieldName, FieldDateOfBirth},
	DocGraduateCertificate: {FieldName},
}

// NewEvidence parses the fields of every OCR'd document.
func NewEvidence(req Request, texts map[DocumentKind]string) Evidence {
	fields := make(map[DocumentKind]ExtractedFields, len(texts))
	for kind, text := range texts {
		fields[kind] = ExtractFields(text, documentFields[kind]...)
	}
	return Evidence{Request: req, Texts: texts, Fields: fields}
}

func (e Evidence) field(kind DocumentKind, key FieldKey) *string {
	return e.Fields[kind][key]
}

// Flatten returns the extracted values under their record column names.
func (e Evidence) Flatten() map[string]*string {
	out := map[string]*string{
		"college_id_name": e.field(DocCollegeIDPhoto, FieldName),
		"college_id_num":  e.field(DocCollegeIDPhoto, FieldIDNumber),
		"gov_name":        e.field(DocGovIDPhoto, FieldName),
		"gov_id":          e.field(DocGovIDPhoto, FieldIDNumber),
		"gov_dob":         e.field(DocGovIDPhoto, FieldDateOfBirth),
		"ssc_name":        e.field(DocSSCCertificate, FieldName),
		"ssc_dob":         e.field(DocSSCCertificate, FieldDateOfBirth),
	}
	if e.Request.Category == CategoryEmployee {
		out["grad_name"] = e.field(DocGraduateCertificate, FieldName)
	}
	return out
}

// check is one content rule. It returns nil when the rule holds.
type check func(cfg Config, ev Evidence) *Rejection

// consistencyChecks run in order; the first rejection wins.
var consistencyChecks = []check{
	checkPassStatus,
	checkDeclaredName,
	checkGraduateName,
	checkCollegeID,
	checkGovernmentID,
	checkDateOfBirth,
}

// CheckConsistency runs every content rule against ev.
func CheckConsistency(cfg Config, ev Evidence) *Rejection {
	for _, c := range consistencyChecks {
		if rej := c(cfg, ev); rej != nil {
			return rej
		}
	}
	return nil
}

func checkPassStatus(_ Config, ev Evidence) *Rejection {
	if strings.Contains(strings.ToLower(ev.Texts[DocSSCCertificate]), "pass") {
		return nil
	}
	return newContentCheck(RulePassStatus, DocSSCCertificate, "SSC certificate does not indicate PASS status")
}

func checkDeclaredName(cfg Config, ev Evidence) *Rejection {
	for _, kind := range []DocumentKind{DocCollegeIDPhoto, DocGovIDPhoto, DocSSCCertificate} {
		found := ev.field(kind, FieldName)
		if found == nil || Similarity(ev.Request.Name, *found) < cfg.SimilarityThreshold {
			return newContentCheck(RuleNameSimilarity, kind,
				fmt.Sprintf("Name mismatch in %s: found '%s'", kind.Label(), display(found)))
		}
	}
	return nil
}

// checkGraduateName only applies when a name could be read from the certificate.
func checkGraduateName(cfg Config, ev Evidence) *Rejection {
	if ev.Request.Category != CategoryEmployee {
		return nil
	}
	found := ev.field(DocGraduateCertificate, FieldName)
	if found == nil {
		return nil
	}
	if Similarity(ev.Request.Name, *found) < cfg.SimilarityThreshold {
		return newContentCheck(RuleNameSimilarity, DocGraduateCertificate,
			fmt.Sprintf("Name mismatch in graduate certificate: '%s'", *found))
	}
	return nil
}

func checkCollegeID(_ Config, ev Evidence) *Rejection {
	if idsDiffer(ev.Request.CollegeID, ev.field(DocCollegeIDPhoto, FieldIDNumber)) {
		return newContentCheck(RuleIDMismatch, DocCollegeIDPhoto, "College ID mismatch")
	}
	return nil
}

func checkGovernmentID(_ Config, ev Evidence) *Rejection {
	if idsDiffer(ev.Request.GovernmentID, ev.field(DocGovIDPhoto, FieldIDNumber)) {
		return newContentCheck(RuleIDMismatch, DocGovIDPhoto, "Government ID mismatch")
	}
	return nil
}

// checkDateOfBirth compares the two DOBs exactly. Two absent values are equal.
func checkDateOfBirth(_ Config, ev Evidence) *Rejection {
	gov := ev.field(DocGovIDPhoto, FieldDateOfBirth)
	ssc := ev.field(DocSSCCertificate, FieldDateOfBirth)
	if gov == nil && ssc == nil {
		return nil
	}
	if gov == nil || ssc == nil || *gov != *ssc {
		return newContentCheck(RuleDOBMismatch, DocSSCCertificate, "DOB mismatch between government ID and SSC")
	}
	return nil
}

// idsDiffer is true only when both sides are present and differ ignoring case.
func idsDiffer(declared string, extracted *string) bool {
	if declared == "" || extracted == nil || *extracted == "" {
		return false
	}
	return !strings.EqualFold(declared, *extracted)
}

func display(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
