// Package advisor wires the catalog, extractor, ranking engine, and formatter into the
// advice and chat operations.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/chat"
	"github.com/hyperjump/shindan/internal/extract"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/ranking"
	"github.com/hyperjump/shindan/internal/storage"
	"github.com/hyperjump/shindan/pkg/utils"
)

// CatalogProvider reads the symptom catalog.
type CatalogProvider interface {
	AllSymptoms(ctx context.Context) ([]models.Symptom, error)
	SearchSymptoms(ctx context.Context, term string) ([]models.Symptom, error)
	SymptomsByIDs(ctx context.Context, ids []int64) ([]models.Symptom, error)
	Categories(ctx context.Context) ([]string, error)
}

// AdviceProvider reads advice entries and weighted symptom-to-advice rows.
type AdviceProvider interface {
	GetAdvice(ctx context.Context, id int64) (*models.AdviceEntry, error)
	Weights(ctx context.Context, symptomIDs []int64) ([]models.WeightedAdvice, error)
}

// SessionLogger records advice requests. Failures never affect the request.
type SessionLogger interface {
	LogSession(ctx context.Context, rec *models.SessionRecord) error
}

// StatsProvider reports stored data counts.
type StatsProvider interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Service answers advice and chat requests. It is safe for concurrent use.
type Service struct {
	catalog    CatalogProvider
	advice     AdviceProvider
	sessions   SessionLogger
	stats      StatsProvider
	ranker     *ranking.Ranker
	formatter  *chat.Formatter
	extractor  atomic.Pointer[extract.Extractor]
	timeout    time.Duration
	logTimeout time.Duration
	logger     *zap.Logger
	pending    sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRanker sets the ranking engine.
func WithRanker(r *ranking.Ranker) Option {
	return func(s *Service) { s.ranker = r }
}

// WithFormatter sets the chat formatter.
func WithFormatter(f *chat.Formatter) Option {
	return func(s *Service) { s.formatter = f }
}

// WithExtractor sets the initial text extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor.Store(e)
		}
	}
}

// WithSessionLogger enables session logging.
func WithSessionLogger(l SessionLogger) Option {
	return func(s *Service) { s.sessions = l }
}

// WithStats sets the provider used by Status.
func WithStats(p StatsProvider) Option {
	return func(s *Service) { s.stats = p }
}

// WithQueryTimeout bounds each data source call. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithSessionTimeout bounds each background session write.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Service) { s.logTimeout = d }
}

// NewService creates a Service over the given providers.
func NewService(catalog CatalogProvider, advice AdviceProvider, opts ...Option) *Service {
	s := &Service{
		catalog:    catalog,
		advice:     advice,
		logTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	if s.ranker == nil {
		s.ranker = ranking.NewRanker(nil)
	}
	if s.formatter == nil {
		s.formatter = chat.NewFormatter(nil)
	}
	if s.extractor.Load() == nil {
		s.extractor.Store(extract.NewExtractor())
	}
	return s
}

// SetExtractor swaps the text extractor used by later chat requests.
func (s *Service) SetExtractor(e *extract.Extractor) {
	if e != nil {
		s.extractor.Store(e)
	}
}

// Wait blocks until background session writes finish.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) lookupFailed(op string, err error) error {
	s.logger.Error("data source lookup failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrLookupFailure, op, err)
}

// Symptoms returns the full catalog.
func (s *Service) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	symptoms, err := s.catalog.AllSymptoms(qctx)
	if err != nil {
		return nil, s.lookupFailed("all symptoms", err)
	}
	return symptoms, nil
}

// SearchSymptoms returns symptoms whose name contains term.
func (s *Service) SearchSymptoms(ctx context.Context, term string) ([]models.Symptom, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalidInput("Search term required")
	}
	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	symptoms, err := s.catalog.SearchSymptoms(qctx, term)
	if err != nil {
		return nil, s.lookupFailed("search symptoms", err)
	}
	return symptoms, nil
}

// Categories returns the distinct symptom categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	cats, err := s.catalog.Categories(qctx)
	if err != nil {
		return nil, s.lookupFailed("categories", err)
	}
	return cats, nil
}

// Advice returns one advice entry. A missing entry is reported as storage.ErrNotFound.
func (s *Service) Advice(ctx context.Context, id int64) (*models.AdviceEntry, error) {
	if id <= 0 {
		return nil, invalidInput("Invalid advice id")
	}
	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	entry, err := s.advice.GetAdvice(qctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, s.lookupFailed("get advice", err)
	}
	return entry, nil
}

// AdviceInput is one structured advice request.
type AdviceInput struct {
	SymptomIDs []int64
	SessionID  string
	IPAddress  string
	UserAgent  string
}

// Advise ranks advice for the requested symptoms. An empty advice list is a success.
func (s *Service) Advise(ctx context.Context, in AdviceInput) (*models.AdviceResponse, error) {
	ids := models.DedupeIDs(in.SymptomIDs)
	if len(ids) == 0 {
		return nil, invalidInput("No valid symptoms provided")
	}

	result, err := s.rank(ctx, ids)
	if err != nil {
		return nil, err
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.logSession(&models.SessionRecord{
		SessionID:  sessionID,
		SymptomIDs: ids,
		AdviceIDs:  result.AdviceIDs(),
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
	})

	return &models.AdviceResponse{
		Success:       true,
		RankingResult: result,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		SessionID:     sessionID,
	}, nil
}

func (s *Service) rank(ctx context.Context, ids []int64) (*models.RankingResult, error) {
	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.advice.Weights(qctx, ids)
	if err != nil {
		return nil, s.lookupFailed("weights", err)
	}
	symptoms, err := s.catalog.SymptomsByIDs(qctx, ids)
	if err != nil {
		return nil, s.lookupFailed("symptoms by id", err)
	}

	result, err := s.ranker.Rank(ids, symptoms, rows)
	if err != nil {
		return nil, invalidInput("No valid symptoms provided")
	}
	return result, nil
}

// ChatInput is one free-text chat request.
type ChatInput struct {
	Message   string
	SessionID string
	IPAddress string
	UserAgent string
}

// Chat extracts symptoms from free text and replies with ranked advice. When the data source
// fails, the reply degrades to the keyword fallback instead of returning an error.
func (s *Service) Chat(ctx context.Context, in ChatInput) (*models.ChatReply, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, invalidInput("No message provided")
	}

	catalog, err := s.Symptoms(ctx)
	if err != nil {
		return chat.Fallback(in.Message), nil
	}

	extracted := s.extractor.Load().Extract(in.Message, catalog)
	if len(extracted) == 0 {
		s.logger.Debug("no symptoms detected", zap.Int("message_len", len(in.Message)))
		return s.formatter.NoSymptoms(), nil
	}

	ids := make([]int64, len(extracted))
	for i, sym := range extracted {
		ids[i] = sym.ID
	}
	result, err := s.rank(ctx, ids)
	if err != nil {
		return chat.Fallback(in.Message), nil
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.logSession(&models.SessionRecord{
		SessionID:  sessionID,
		SymptomIDs: ids,
		AdviceIDs:  result.AdviceIDs(),
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
	})

	return s.formatter.Format(result, extracted), nil
}

// logSession writes rec in the background. The write is detached from the request context.
func (s *Service) logSession(rec *models.SessionRecord) {
	if s.sessions == nil {
		return
	}
	rec.CreatedAt = time.Now().UTC()
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.logTimeout)
		defer cancel()
		if err := s.sessions.LogSession(ctx, rec); err != nil {
			s.logger.Warn("session logging failed", zap.String("session_id", rec.SessionID), zap.Error(err))
		}
	}()
}

// Status reports whether the knowledge base is loaded.
type Status struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
	*storage.Stats
}

// Status returns data counts and readiness.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	if s.stats == nil {
		return nil, fmt.Errorf("%w: status not available", ErrLookupFailure)
	}
	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	st, err := s.stats.Stats(qctx)
	if err != nil {
		return nil, s.lookupFailed("stats", err)
	}
	status := &Status{Stats: st, Ready: st.Symptoms > 0 && st.Advice > 0}
	if !status.Ready {
		status.Message = "Knowledge base is empty. Run `shindan import` to initialize."
	}
	return status, nil
}
