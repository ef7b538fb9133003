package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/ai"
	"github.com/xxxsen/gsqlai/internal/model"
	appErr "github.com/xxxsen/gsqlai/internal/pkg/errors"
	"github.com/xxxsen/gsqlai/internal/retrieval"
)

const maxSearchTopK = 20

type ChunkProvider interface {
	Chunks(ctx context.Context) []*model.KnowledgeChunk
}

type Conversation interface {
	Configured() bool
	Converse(ctx context.Context, turns []model.ChatTurn) (string, error)
}

type GenerationStore interface {
	Create(ctx context.Context, record *model.GenerationRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.GenerationRecord, error)
}

type GSQLService struct {
	chunks  ChunkProvider
	llm     Conversation
	topK    int
	cache   *expirable.LRU[string, *model.GenerationResult]
	records GenerationStore
	usage   usageCounters
	now     func() time.Time
}

type Option func(*GSQLService)

func WithTopK(topK int) Option {
	return func(s *GSQLService) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithCache enables the response cache for generate results.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *GSQLService) {
		if size > 0 && ttl > 0 {
			s.cache = expirable.NewLRU[string, *model.GenerationResult](size, nil, ttl)
		}
	}
}

func WithGenerationStore(store GenerationStore) Option {
	return func(s *GSQLService) {
		s.records = store
	}
}

func NewGSQLService(chunks ChunkProvider, llm Conversation, opts ...Option) *GSQLService {
	s := &GSQLService{
		chunks: chunks,
		llm:    llm,
		topK:   retrieval.DefaultTopK,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GSQLService) Configured() bool {
	return s.llm != nil && s.llm.Configured()
}

func (s *GSQLService) Usage() UsageSnapshot {
	return s.usage.snapshot()
}

func (s *GSQLService) Generate(ctx context.Context, userID string, req *model.GenerationRequest) (*model.GenerationResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, appErr.ErrInvalid
	}
	if err := validateHistory(req.History); err != nil {
		return nil, err
	}
	start := s.now()
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	s.usage.requests.Add(1)
	if !s.Configured() {
		s.usage.unavailable.Add(1)
		s.record(ctx, userID, model.GenerationKindGenerate, req.Prompt, nil, model.OutcomeUnavailable, start)
		return nil, appErr.ErrUnavailable
	}

	key := generationCacheKey(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.usage.cacheHits.Add(1)
			logger.Debug("generation cache hit")
			out := *cached
			s.record(ctx, userID, model.GenerationKindGenerate, req.Prompt, nil, model.OutcomeCached, start)
			return &out, nil
		}
	}

	retrieved := retrieval.Score(req.Prompt, req.Schema, s.chunks.Chunks(ctx), s.topK)
	logger.Debug("knowledge retrieved", zap.Int("chunks", len(retrieved)), zap.Strings("titles", retrieval.Titles(retrieved)))
	turns := assembleTurns(
		withRetrievedContext(generationInstructions, retrieved),
		generationAck,
		req.History,
		buildGenerationMessage(req.Prompt, req.Schema, req.Context),
	)
	text, err := s.llm.Converse(ctx, turns)
	if err != nil {
		if mapped, outcome := s.mapUpstreamError(ctx, err); mapped != nil {
			s.record(ctx, userID, model.GenerationKindGenerate, req.Prompt, retrieved, outcome, start)
			return nil, mapped
		}
		s.usage.degraded.Add(1)
		result := generationFallback(retrieved)
		s.record(ctx, userID, model.GenerationKindGenerate, req.Prompt, retrieved, model.OutcomeDegraded, start)
		return result, nil
	}

	result := parseGeneration(text)
	result.RAGContext = ragContext(retrieved)
	if s.cache != nil {
		s.cache.Add(key, result)
	}
	s.record(ctx, userID, model.GenerationKindGenerate, req.Prompt, retrieved, model.OutcomeOK, start)
	logger.Info("gsql generated", zap.Int("chunks", len(retrieved)), zap.Int("code_len", len(result.Code)))
	out := *result
	return &out, nil
}

func (s *GSQLService) Chat(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatResult, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, appErr.ErrInvalid
	}
	if err := validateHistory(req.History); err != nil {
		return nil, err
	}
	start := s.now()
	s.usage.requests.Add(1)
	if !s.Configured() {
		s.usage.unavailable.Add(1)
		s.record(ctx, userID, model.GenerationKindChat, req.Message, nil, model.OutcomeUnavailable, start)
		return nil, appErr.ErrUnavailable
	}

	retrieved := retrieval.Score(req.Message, "", s.chunks.Chunks(ctx), s.topK)
	turns := assembleTurns(withRetrievedContext(chatInstructions, retrieved), chatAck, req.History, req.Message)
	text, err := s.llm.Converse(ctx, turns)
	if err != nil {
		if mapped, outcome := s.mapUpstreamError(ctx, err); mapped != nil {
			s.record(ctx, userID, model.GenerationKindChat, req.Message, retrieved, outcome, start)
			return nil, mapped
		}
		s.usage.degraded.Add(1)
		s.record(ctx, userID, model.GenerationKindChat, req.Message, retrieved, model.OutcomeDegraded, start)
		return chatFallback(retrieved), nil
	}
	s.record(ctx, userID, model.GenerationKindChat, req.Message, retrieved, model.OutcomeOK, start)
	return &model.ChatResult{
		Reply:      text,
		RAGContext: ragContext(retrieved),
	}, nil
}

// Search runs retrieval only.
func (s *GSQLService) Search(ctx context.Context, query, schema string, topK int) ([]model.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, appErr.ErrInvalid
	}
	if topK <= 0 {
		topK = s.topK
	}
	if topK > maxSearchTopK {
		topK = maxSearchTopK
	}
	return retrieval.Score(query, schema, s.chunks.Chunks(ctx), topK), nil
}

func (s *GSQLService) Sections(ctx context.Context) []*model.KnowledgeChunk {
	return s.chunks.Chunks(ctx)
}

func (s *GSQLService) ListGenerations(ctx context.Context, userID string, limit int) ([]model.GenerationRecord, error) {
	if s.records == nil {
		return []model.GenerationRecord{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.records.ListByUser(ctx, userID, limit)
}

// mapUpstreamError returns the caller-visible error for failures that must not
// degrade. A nil error means the caller should fall back.
func (s *GSQLService) mapUpstreamError(ctx context.Context, err error) (error, string) {
	logger := logutil.GetLogger(ctx)
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		s.usage.rateLimited.Add(1)
		logger.Warn("ai provider rate limited", zap.Error(err))
		return appErr.ErrTooMany, model.OutcomeRateLimited
	case errors.Is(err, ai.ErrUpstreamAuth):
		s.usage.misconfigured.Add(1)
		logger.Error("ai provider rejected credentials", zap.Error(err))
		return appErr.ErrMisconfigured, model.OutcomeMisconfig
	case errors.Is(err, ai.ErrUnavailable):
		s.usage.unavailable.Add(1)
		return appErr.ErrUnavailable, model.OutcomeUnavailable
	}
	logger.Error("ai provider call failed, using fallback answer", zap.Error(err))
	return nil, model.OutcomeDegraded
}

func (s *GSQLService) record(ctx context.Context, userID, kind, prompt string, retrieved []model.ScoredChunk, outcome string, start time.Time) {
	if s.records == nil {
		return
	}
	now := s.now()
	record := &model.GenerationRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Kind:            kind,
		PromptHash:      hashText(prompt),
		ChunksRetrieved: len(retrieved),
		Confidence:      retrieval.Confidence(retrieved),
		Outcome:         outcome,
		LatencyMs:       now.Sub(start).Milliseconds(),
		Ctime:           now.UnixMilli(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		logutil.GetLogger(ctx).Warn("record generation failed", zap.String("kind", kind), zap.Error(err))
	}
}

func validateHistory(history []model.ChatTurn) error {
	for _, turn := range history {
		if turn.Role != model.RoleUser && turn.Role != model.RoleAssistant {
			return appErr.ErrInvalid
		}
	}
	return nil
}

// generationCacheKey ignores surrounding whitespace so requests that differ
// only in padding share an entry.
func generationCacheKey(req *model.GenerationRequest) string {
	norm := model.GenerationRequest{
		Prompt:  strings.TrimSpace(req.Prompt),
		Schema:  strings.TrimSpace(req.Schema),
		Context: strings.TrimSpace(req.Context),
	}
	for _, turn := range req.History {
		norm.History = append(norm.History, model.ChatTurn{
			Role:    turn.Role,
			Content: strings.TrimSpace(turn.Content),
		})
	}
	data, _ := json.Marshal(norm)
	return "generate:" + hashText(string(data))
}

func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
