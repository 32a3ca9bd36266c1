package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docverify/internal/platform/tracer"
	"docverify/internal/records/models"
	"docverify/internal/verification/metrics"
	"docverify/pkg/requestcontext"
)

// Normalizer turns an upload into exactly one raster image.
type Normalizer interface {
	Normalize(ctx context.Context, upload Upload) (NormalizedDocument, error)
}

// TextExtractor gates a document on sharpness and returns its OCR text.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc NormalizedDocument) (string, error)
}

// FaceMatcher compares a selfie with an ID photo. It never fails; faults are
// reported through FaceMatchResult.Outcome.
type FaceMatcher interface {
	Verify(ctx context.Context, selfie, idPhoto []byte) FaceMatchResult
}

// Dispatcher delivers the accepted payload to the system of record.
type Dispatcher interface {
	Send(ctx context.Context, payload Payload) error
}

// UploadStore persists raw uploads and returns their storage key.
type UploadStore interface {
	Put(ctx context.Context, upload Upload) (string, error)
}

// RecordStore keeps the persisted trace of each verification.
type RecordStore interface {
	Create(ctx context.Context, record *models.Record) error
	UpdateOutcome(ctx context.Context, id uuid.UUID, outcome models.Outcome) error
}

// AuditPublisher emits one event per verdict.
type AuditPublisher interface {
	PublishVerdict(ctx context.Context, event VerdictEvent) error
}

// VerdictEvent describes a decided verification for audit consumers.
type VerdictEvent struct {
	VerificationID uuid.UUID
	Category       Category
	Status         string
	Reason         Reason
	Rule           Rule
	GovernmentID   string
	FaceDistance   *float64
	DecidedAt      time.Time
	Duration       time.Duration
}

// Pipeline runs the verification stages strictly in sequence and stops at the
// first rejection. Exactly one Verdict is produced per call.
type Pipeline struct {
	cfg        Config
	normalizer Normalizer
	extractor  TextExtractor
	faces      FaceMatcher
	dispatcher Dispatcher

	uploads UploadStore
	records RecordStore
	audit   AuditPublisher
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

type Option func(*Pipeline)

func WithUploadStore(store UploadStore) Option {
	return func(p *Pipeline) {
		p.uploads = store
	}
}

func WithRecordStore(store RecordStore) Option {
	return func(p *Pipeline) {
		p.records = store
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(p *Pipeline) {
		p.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline wires the stages. Capabilities are required; persistence, audit
// and observability are optional.
func NewPipeline(cfg Config, normalizer Normalizer, extractor TextExtractor, faces FaceMatcher, dispatcher Dispatcher, opts ...Option) (*Pipeline, error) {
	switch {
	case normalizer == nil:
		return nil, errors.New("normalizer is required")
	case extractor == nil:
		return nil, errors.New("text extractor is required")
	case faces == nil:
		return nil, errors.New("face matcher is required")
	case dispatcher == nil:
		return nil, errors.New("dispatcher is required")
	}
	p := &Pipeline{
		cfg:        cfg,
		normalizer: normalizer,
		extractor:  extractor,
		faces:      faces,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = tracer.NewNoop()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// run carries what a single verification learned along the way.
type run struct {
	id       uuid.UUID
	started  time.Time
	recorded bool
	files    map[string]string
	evidence *Evidence
	face     *FaceMatchResult
}

// Verify runs the full pipeline for req.
func (p *Pipeline) Verify(ctx context.Context, req Request) Verdict {
	st := &run{id: uuid.New(), started: time.Now(), files: map[string]string{}}

	ctx, span := p.tracer.Start(ctx, "verification.verify",
		tracer.String("verification_id", st.id.String()),
		tracer.String("category", string(req.Category)),
	)
	verdict := p.execute(ctx, req, st)
	var spanErr error
	if !verdict.Accepted {
		spanErr = verdict.Rejection
	}
	span.SetAttributes(tracer.String("status", verdict.Status()))
	span.End(spanErr)

	p.finish(context.WithoutCancel(ctx), req, st, verdict)
	return verdict
}

// execute is the pipeline boundary: panics and unexpected errors become internal_error.
func (p *Pipeline) execute(ctx context.Context, req Request, st *run) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "verification panicked",
				"verification_id", st.id,
				"request_id", requestcontext.RequestID(ctx),
				"panic", r,
			)
			verdict = reject(st.id, newInternalError(fmt.Errorf("panic: %v", r)))
		}
	}()

	if rej := p.intake(ctx, req); rej != nil {
		return reject(st.id, rej)
	}

	p.persistUploads(ctx, req, st)
	p.createRecord(ctx, req, st)

	docs, err := p.normalizeAll(ctx, req)
	if err != nil {
		return reject(st.id, p.classify(ctx, st, "normalize", err))
	}

	texts, err := p.extractAll(ctx, docs)
	if err != nil {
		return reject(st.id, p.classify(ctx, st, "ocr", err))
	}

	ev := NewEvidence(req, texts)
	st.evidence = &ev
	if rej := p.checkConsistency(ctx, ev); rej != nil {
		return reject(st.id, rej)
	}

	result := p.matchFace(ctx, docs[DocSelfie].Image, docs[DocCollegeIDPhoto].Image)
	st.face = &result
	if !p.cfg.acceptsFace(result) {
		return reject(st.id, newFaceMismatch(result.Distance))
	}

	payload := newPayload(req)
	if err := p.dispatch(ctx, payload); err != nil {
		p.logger.ErrorContext(ctx, "dispatch failed",
			"verification_id", st.id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return reject(st.id, newDeliveryFailed(err))
	}
	return accept(st.id, payload)
}

func (p *Pipeline) intake(ctx context.Context, req Request) *Rejection {
	var rej *Rejection
	_ = p.stage(ctx, "intake", nil, func(context.Context) error {
		rej = ValidateIntake(req)
		if rej != nil {
			return rej
		}
		return nil
	})
	return rej
}

func (p *Pipeline) normalizeAll(ctx context.Context, req Request) (map[DocumentKind]NormalizedDocument, error) {
	docs := make(map[DocumentKind]NormalizedDocument, len(DocumentKinds))
	for _, kind := range req.requiredKinds() {
		upload, _ := req.Document(kind)
		err := p.stage(ctx, "normalize", []tracer.Attribute{tracer.String("document", string(kind))}, func(ctx context.Context) error {
			doc, err := p.normalizer.Normalize(ctx, upload)
			if err != nil {
				return err
			}
			docs[kind] = doc
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", kind, err)
		}
	}
	return docs, nil
}

// ocrOrder is the order documents are read in. The selfie is never OCR'd.
var ocrOrder = []DocumentKind{DocCollegeIDPhoto, DocGovIDPhoto, DocSSCCertificate, DocGraduateCertificate}

func (p *Pipeline) extractAll(ctx context.Context, docs map[DocumentKind]NormalizedDocument) (map[DocumentKind]string, error) {
	texts := make(map[DocumentKind]string, len(ocrOrder))
	for _, kind := range ocrOrder {
		doc, ok := docs[kind]
		if !ok {
			continue
		}
		err := p.stage(ctx, "ocr", []tracer.Attribute{tracer.String("document", string(kind))}, func(ctx context.Context) error {
			ctx, cancel := withTimeout(ctx, p.cfg.OCRTimeout)
			defer cancel()
			text, err := p.extractor.ExtractText(ctx, doc)
			if err != nil {
				return err
			}
			texts[kind] = text
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("extract text from %s: %w", kind, err)
		}
	}
	return texts, nil
}

func (p *Pipeline) checkConsistency(ctx context.Context, ev Evidence) *Rejection {
	var rej *Rejection
	_ = p.stage(ctx, "consistency", nil, func(context.Context) error {
		rej = CheckConsistency(p.cfg, ev)
		if rej != nil {
			return rej
		}
		return nil
	})
	return rej
}

func (p *Pipeline) matchFace(ctx context.Context, selfie, idPhoto []byte) FaceMatchResult {
	var result FaceMatchResult
	_ = p.stage(ctx, "face_match", nil, func(ctx context.Context) error {
		ctx, cancel := withTimeout(ctx, p.cfg.FaceMatchTimeout)
		defer cancel()
		result = p.faces.Verify(ctx, selfie, idPhoto)
		return nil
	})
	p.metrics.ObserveFaceDistance(result.Distance)
	p.logger.DebugContext(ctx, "face match",
		"request_id", requestcontext.RequestID(ctx),
		"outcome", result.Outcome,
		"verified", result.Verified,
		"distance", result.Distance,
	)
	return result
}

func (p *Pipeline) dispatch(ctx context.Context, payload Payload) error {
	return p.stage(ctx, "dispatch", nil, func(ctx context.Context) error {
		ctx, cancel := withTimeout(ctx, p.cfg.DispatchTimeout)
		defer cancel()
		return p.dispatcher.Send(ctx, payload)
	})
}

// stage times fn, wraps it in a span and records the stage latency.
func (p *Pipeline) stage(ctx context.Context, name string, attrs []tracer.Attribute, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "verification."+name, attrs...)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	p.metrics.ObserveStage(name, elapsed)
	p.logger.DebugContext(ctx, "stage finished",
		"request_id", requestcontext.RequestID(ctx),
		"stage", name,
		"duration_ms", elapsed.Milliseconds(),
	)
	return err
}

// classify keeps client rejections as they are and turns anything else into internal_error.
func (p *Pipeline) classify(ctx context.Context, st *run, stage string, err error) *Rejection {
	if rej, ok := AsRejection(err); ok {
		return rej
	}
	p.logger.ErrorContext(ctx, "verification stage failed",
		"verification_id", st.id,
		"request_id", requestcontext.RequestID(ctx),
		"stage", stage,
		"error", err,
	)
	return newInternalError(err)
}

func (p *Pipeline) persistUploads(ctx context.Context, req Request, st *run) {
	if p.uploads == nil {
		return
	}
	for _, kind := range DocumentKinds {
		upload, ok := req.Document(kind)
		if !ok {
			continue
		}
		key, err := p.uploads.Put(ctx, upload)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to store upload",
				"verification_id", st.id,
				"request_id", requestcontext.RequestID(ctx),
				"document", kind,
				"error", err,
			)
			continue
		}
		st.files[string(kind)] = key
	}
}

func (p *Pipeline) createRecord(ctx context.Context, req Request, st *run) {
	if p.records == nil {
		return
	}
	now := requestcontext.Now(ctx).UTC()
	record := &models.Record{
		ID:           st.id,
		Category:     string(req.Category),
		Name:         req.Name,
		Email:        req.Email,
		Contact:      req.Contact,
		CollegeName:  req.CollegeName,
		CollegeID:    req.CollegeID,
		GovernmentID: req.GovernmentID,
		Files:        st.files,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.records.Create(ctx, record); err != nil {
		p.logger.WarnContext(ctx, "failed to create verification record",
			"verification_id", st.id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	st.recorded = true
}

// finish applies every side effect of a decided verdict. None of them can change it.
func (p *Pipeline) finish(ctx context.Context, req Request, st *run, verdict Verdict) {
	elapsed := time.Since(st.started)
	decidedAt := time.Now().UTC()

	var reason Reason
	var rule Rule
	if verdict.Rejection != nil {
		reason = verdict.Rejection.Reason
		rule = verdict.Rejection.Rule
	}

	var distance *float64
	if st.face != nil {
		d := st.face.Distance
		distance = &d
	}

	p.metrics.IncVerdict(verdict.Status(), string(reason))
	p.metrics.ObserveVerify(elapsed)

	if st.recorded {
		outcome := models.Outcome{
			Status:       recordStatus(verdict),
			Reason:       string(reason),
			Rule:         string(rule),
			FaceDistance: distance,
			DecidedAt:    decidedAt,
		}
		if verdict.Rejection != nil {
			outcome.Message = verdict.Rejection.Message
		}
		if st.evidence != nil {
			outcome.Extracted = st.evidence.Flatten()
		}
		if err := p.records.UpdateOutcome(ctx, st.id, outcome); err != nil {
			p.logger.WarnContext(ctx, "failed to update verification record",
				"verification_id", st.id,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	if p.audit != nil {
		event := VerdictEvent{
			VerificationID: st.id,
			Category:       req.Category,
			Status:         verdict.Status(),
			Reason:         reason,
			Rule:           rule,
			GovernmentID:   req.GovernmentID,
			FaceDistance:   distance,
			DecidedAt:      decidedAt,
			Duration:       elapsed,
		}
		if err := p.audit.PublishVerdict(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "failed to publish verdict event",
				"verification_id", st.id,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	level := slog.LevelInfo
	if verdict.Rejection != nil && verdict.Rejection.Class() == ClassServer {
		level = slog.LevelError
	}
	p.logger.Log(ctx, level, "verification decided",
		"verification_id", st.id,
		"request_id", requestcontext.RequestID(ctx),
		"category", req.Category,
		"status", verdict.Status(),
		"rule", rule,
		"duration_ms", elapsed.Milliseconds(),
	)
}

func recordStatus(v Verdict) models.Status {
	if v.Accepted {
		return models.StatusVerified
	}
	switch v.Rejection.Reason {
	case ReasonDeliveryFailed:
		return models.StatusDeliveryFailed
	case ReasonInternalError:
		return models.StatusFailed
	}
	return models.StatusRejected
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
