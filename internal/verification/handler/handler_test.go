package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/verification"
	"docverify/internal/verification/handler/mocks"
	"docverify/pkg/testutil"
)

type VerifyHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestVerifyHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerifyHandlerSuite))
}

func (s *VerifyHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger, 1<<20).Register(s.router)
}

func (s *VerifyHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func studentFields() map[string]string {
	return map[string]string{
		"user_type":     "student",
		"name":          "John Smith",
		"email":         "john@example.com",
		"contact":       "+15550100",
		"college_name":  "State College",
		"college_id":    "C123",
		"government_id": "G456",
	}
}

func studentFiles() []testutil.MultipartFile {
	return []testutil.MultipartFile{
		{Field: "college_id_photo", Filename: "college.jpg", ContentType: "image/jpeg", Data: []byte("college")},
		{Field: "gov_id_photo", Filename: "gov.png", ContentType: "image/png", Data: []byte("gov")},
		{Field: "selfie", Filename: "selfie.jpg", ContentType: "image/jpeg", Data: []byte("selfie")},
		{Field: "ssc_certificate", Filename: "ssc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}
}

func (s *VerifyHandlerSuite) TestParsesSubmission() {
	id := uuid.New()
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req verification.Request) verification.Verdict {
			s.Equal(verification.CategoryStudent, req.Category)
			s.Equal("John Smith", req.Name)
			s.Equal("C123", req.CollegeID)
			s.Len(req.Documents, 4)

			ssc := req.Documents[verification.DocSSCCertificate]
			s.Equal("ssc.pdf", ssc.Filename)
			s.Equal("application/pdf", ssc.ContentType)
			s.Equal([]byte("%PDF-1.4"), ssc.Data)
			s.NotContains(req.Documents, verification.DocGraduateCertificate)

			return verification.Verdict{ID: id, Accepted: true, Payload: &verification.Payload{Status: "verified"}}
		})

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/verify", studentFields(), studentFiles()...)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[Response](s.T(), rr)
	s.Equal(id.String(), resp.VerificationID)
	s.Equal("verified", resp.Status)
	s.Equal("Verification successful", resp.Message)
}

func (s *VerifyHandlerSuite) TestVerdictStatusCodes() {
	tests := []struct {
		name   string
		reason verification.Reason
		status int
	}{
		{"missing field", verification.ReasonMissingField, http.StatusBadRequest},
		{"invalid field", verification.ReasonInvalidField, http.StatusBadRequest},
		{"too blurry", verification.ReasonTooBlurry, http.StatusBadRequest},
		{"content check", verification.ReasonContentCheckFailed, http.StatusBadRequest},
		{"face mismatch", verification.ReasonFaceMismatch, http.StatusForbidden},
		{"delivery failed", verification.ReasonDeliveryFailed, http.StatusBadGateway},
		{"internal error", verification.ReasonInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(verification.Verdict{
				ID:        uuid.New(),
				Rejection: &verification.Rejection{Reason: tt.reason, Message: "rejected: " + string(tt.reason)},
			})

			req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/verify", studentFields(), studentFiles()...)
			rr := testutil.DoRequest(s.router, req)

			testutil.AssertStatus(s.T(), rr, tt.status)
			resp := testutil.UnmarshalResponse[Response](s.T(), rr)
			s.Equal("rejected", resp.Status)
			s.Equal(string(tt.reason), resp.Reason)
			s.Equal("rejected: "+string(tt.reason), resp.Message)
		})
	}
}

func (s *VerifyHandlerSuite) TestRejectionDetailsAreReturned() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(verification.Verdict{
		ID: uuid.New(),
		Rejection: &verification.Rejection{
			Reason:   verification.ReasonContentCheckFailed,
			Rule:     verification.RuleNameSimilarity,
			Document: verification.DocGovIDPhoto,
			Message:  "Name mismatch in Gov ID: found 'Maria Garcia'",
		},
	})

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/verify", studentFields(), studentFiles()...)
	rr := testutil.DoRequest(s.router, req)

	resp := testutil.UnmarshalResponse[Response](s.T(), rr)
	s.Equal("name_similarity", resp.Rule)
	s.Equal("gov_id_photo", resp.Document)
}

func (s *VerifyHandlerSuite) TestMalformedBodies() {
	s.Run("non multipart body is a bad request", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/verify")
		req.Body = io.NopCloser(strings.NewReader(`{"name":"John"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("oversized upload is rejected before verification", func() {
		big := testutil.MultipartFile{Field: "selfie", Filename: "selfie.jpg", ContentType: "image/jpeg", Data: make([]byte, 2<<20)}
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/verify", studentFields(), big)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusRequestEntityTooLarge, "payload_too_large")
	})
}

func (s *VerifyHandlerSuite) TestStatusCode() {
	s.Equal(http.StatusOK, StatusCode(verification.Verdict{Accepted: true}))
	s.Equal(http.StatusForbidden, StatusCode(verification.Verdict{
		Rejection: &verification.Rejection{Reason: verification.ReasonFaceMismatch},
	}))
}
