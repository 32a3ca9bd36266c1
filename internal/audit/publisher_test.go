package audit

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Producer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/audit/mocks"
	"docverify/internal/platform/kafka/producer"
	"docverify/internal/verification"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	producer *mocks.MockProducer
	hasher   *privacy.Hasher
	logger   *slog.Logger
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.producer = mocks.NewMockProducer(s.ctrl)
	hasher, err := privacy.NewHasher("audit-test-key")
	s.Require().NoError(err)
	s.hasher = hasher
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PublisherSuite) TearDownTest() {
	s.ctrl.Finish()
}

func rejectedVerdict() verification.VerdictEvent {
	distance := 0.72
	return verification.VerdictEvent{
		VerificationID: uuid.MustParse("7b0c1f0e-4a4c-4d55-9d8e-1a2b3c4d5e6f"),
		Category:       verification.CategoryStudent,
		Status:         string(verification.ReasonFaceMismatch),
		Reason:         verification.ReasonFaceMismatch,
		GovernmentID:   "G456",
		FaceDistance:   &distance,
		DecidedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:       1500 * time.Millisecond,
	}
}

// =============================================================================
// Synchronous mode
// =============================================================================

func (s *PublisherSuite) TestPublishVerdict_WritesEvent() {
	pub, err := NewPublisher(s.producer, "verification.audit", WithHasher(s.hasher), WithLogger(s.logger))
	s.Require().NoError(err)

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.42",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *producer.Message) error {
			s.Equal("verification.audit", msg.Topic)
			s.Equal("7b0c1f0e-4a4c-4d55-9d8e-1a2b3c4d5e6f", string(msg.Key))
			s.Equal(EventVerdictDecided, msg.Headers["event_type"])

			var event Event
			s.Require().NoError(json.Unmarshal(msg.Value, &event))
			s.Equal("req-1", event.RequestID)
			s.Equal("student", event.UserType)
			s.Equal("face_mismatch", event.Status)
			s.Equal("face_mismatch", event.Reason)
			s.Equal(s.hasher.Digest("G456"), event.GovernmentIDDigest)
			s.NotContains(string(msg.Value), "G456")
			s.Equal("203.0.113.0", event.ClientIP)
			s.True(strings.HasPrefix(event.Device, "Chrome on Linux"), event.Device)
			s.Require().NotNil(event.FaceDistance)
			s.InDelta(0.72, *event.FaceDistance, 1e-9)
			s.Equal(int64(1500), event.DurationMS)
			return nil
		})

	s.NoError(pub.PublishVerdict(ctx, rejectedVerdict()))
}

func (s *PublisherSuite) TestPublishVerdict_WithoutHasherOmitsGovernmentID() {
	pub, err := NewPublisher(s.producer, "verification.audit", WithLogger(s.logger))
	s.Require().NoError(err)

	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *producer.Message) error {
			s.NotContains(string(msg.Value), "government_id")
			s.NotContains(string(msg.Value), "client_ip")
			return nil
		})

	s.NoError(pub.PublishVerdict(context.Background(), rejectedVerdict()))
}

func (s *PublisherSuite) TestPublishVerdict_ProducerError() {
	pub, err := NewPublisher(s.producer, "verification.audit", WithLogger(s.logger))
	s.Require().NoError(err)

	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	err = pub.PublishVerdict(context.Background(), rejectedVerdict())
	s.Require().Error(err)
	s.Contains(err.Error(), "broker down")
}

func (s *PublisherSuite) TestNewPublisher_RequiresProducerAndTopic() {
	_, err := NewPublisher(nil, "topic")
	s.Error(err)

	_, err = NewPublisher(s.producer, "")
	s.Error(err)
}

// =============================================================================
// Async mode
// =============================================================================

func (s *PublisherSuite) TestAsync_DrainsOnClose() {
	pub, err := NewPublisher(s.producer, "verification.audit", WithAsyncBuffer(16), WithLogger(s.logger))
	s.Require().NoError(err)

	var mu sync.Mutex
	var keys []string
	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *producer.Message) error {
			mu.Lock()
			defer mu.Unlock()
			keys = append(keys, string(msg.Key))
			return nil
		}).Times(5)

	for range 5 {
		ev := rejectedVerdict()
		ev.VerificationID = uuid.New()
		s.Require().NoError(pub.PublishVerdict(context.Background(), ev))
	}
	s.Require().NoError(pub.Close())

	mu.Lock()
	defer mu.Unlock()
	s.Len(keys, 5)
}

func (s *PublisherSuite) TestAsync_FullBufferDrops() {
	block := make(chan struct{})
	metrics := NewMetrics(prometheus.NewRegistry())
	pub, err := NewPublisher(s.producer, "verification.audit", WithAsyncBuffer(1), WithLogger(s.logger), WithMetrics(metrics))
	s.Require().NoError(err)

	started := make(chan struct{}, 1)
	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *producer.Message) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-block
			return nil
		}).AnyTimes()

	s.Require().NoError(pub.PublishVerdict(context.Background(), rejectedVerdict()))
	<-started
	s.Require().NoError(pub.PublishVerdict(context.Background(), rejectedVerdict()))

	err = pub.PublishVerdict(context.Background(), rejectedVerdict())
	s.ErrorIs(err, ErrBufferFull)
	s.Equal(int64(1), pub.Dropped())
	s.InDelta(1, promtestutil.ToFloat64(metrics.Dropped), 1e-9)

	close(block)
	s.Require().NoError(pub.Close())
}

func (s *PublisherSuite) TestAsync_FailedWritesAreCounted() {
	metrics := NewMetrics(prometheus.NewRegistry())
	pub, err := NewPublisher(s.producer, "verification.audit", WithAsyncBuffer(4), WithLogger(s.logger), WithMetrics(metrics))
	s.Require().NoError(err)

	s.producer.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(errors.New("kafka: leader not available")).Times(2)

	s.Require().NoError(pub.PublishVerdict(context.Background(), rejectedVerdict()))
	s.Require().NoError(pub.PublishVerdict(context.Background(), rejectedVerdict()))
	s.Require().NoError(pub.Close())

	s.InDelta(2, promtestutil.ToFloat64(metrics.Failed), 1e-9)
	s.InDelta(0, promtestutil.ToFloat64(metrics.Dropped), 1e-9)
}

func (s *PublisherSuite) TestPublishAfterClose() {
	pub, err := NewPublisher(s.producer, "verification.audit", WithAsyncBuffer(4))
	s.Require().NoError(err)
	s.Require().NoError(pub.Close())
	s.Require().NoError(pub.Close())

	s.ErrorIs(pub.PublishVerdict(context.Background(), rejectedVerdict()), ErrClosed)
}

func TestDeviceLabel(t *testing.T) {
	assert.Empty(t, DeviceLabel(""))

	label := DeviceLabel("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.True(t, strings.HasPrefix(label, "Chrome on Linux"), label)
}
