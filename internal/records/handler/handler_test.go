package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/records/handler/mocks"
	"docverify/internal/records/models"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/testutil"
)

type RecordsHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	records *mocks.MockReader
	router  chi.Router
}

func TestRecordsHandlerSuite(t *testing.T) {
	suite.Run(t, new(RecordsHandlerSuite))
}

func (s *RecordsHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.records = mocks.NewMockReader(s.ctrl)
	s.router = chi.NewRouter()
	New(s.records, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RecordsHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sampleRecord() *models.Record {
	return &models.Record{
		ID:           uuid.New(),
		Category:     "student",
		Name:         "John Smith",
		GovernmentID: "G456",
		Status:       models.StatusVerified,
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 1, 9, 0, 2, 0, time.UTC),
	}
}

// =============================================================================
// List
// =============================================================================

func (s *RecordsHandlerSuite) TestList_ParsesFilter() {
	record := sampleRecord()
	s.records.EXPECT().List(gomock.Any(), models.ListFilter{
		Statuses: []models.Status{models.StatusRejected, models.StatusDeliveryFailed, models.StatusFailed},
		Category: "employee",
		Limit:    10,
	}).Return([]*models.Record{record}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet,
		"/admin/verifications?status=rejected,delivery_failed&status=failed&user_type=employee&limit=10")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
	s.Equal(1, resp.Count)
	s.Require().Len(resp.Records, 1)
	s.Equal(record.ID, resp.Records[0].ID)
}

func (s *RecordsHandlerSuite) TestList_EmptyFilter() {
	s.records.EXPECT().List(gomock.Any(), models.ListFilter{}).Return([]*models.Record{}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
	s.Zero(resp.Count)
	s.NotNil(resp.Records)
}

func (s *RecordsHandlerSuite) TestList_InvalidQuery() {
	for _, query := range []string{"status=approved", "user_type=visitor", "limit=-1", "limit=ten"} {
		s.Run(query, func() {
			req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications?"+query)
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
		})
	}
}

func (s *RecordsHandlerSuite) TestList_StoreFailure() {
	s.records.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	var logs bytes.Buffer
	router := chi.NewRouter()
	New(s.records, slog.New(slog.NewJSONHandler(&logs, nil))).Register(router)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications")
	req = testutil.WithAdmin(testutil.WithRequestID(req, "req-7"), "ops@example.com")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	s.NotContains(rr.Body.String(), "connection refused")
	s.Contains(logs.String(), `"admin":"ops@example.com"`)
	s.Contains(logs.String(), `"request_id":"req-7"`)
}

// =============================================================================
// Get
// =============================================================================

func (s *RecordsHandlerSuite) TestGet() {
	record := sampleRecord()
	s.records.EXPECT().FindByID(gomock.Any(), record.ID).Return(record, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications/"+record.ID.String()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[models.Record](s.T(), rr)
	s.Equal(record.ID, resp.ID)
	s.Equal(models.StatusVerified, resp.Status)
}

func (s *RecordsHandlerSuite) TestGet_NotFound() {
	id := uuid.New()
	s.records.EXPECT().FindByID(gomock.Any(), id).
		Return(nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications/"+id.String()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *RecordsHandlerSuite) TestGet_InvalidID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/verifications/not-a-uuid"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

var _ Reader = (*mocks.MockReader)(nil)
