package knowledge

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xxxsen/gsqlai/internal/model"
)

// loadTimeout bounds the document read, which ignores cancellation of the
// request that triggered it.
const loadTimeout = 30 * time.Second

// Store owns the parsed chunk list. The document is read and parsed on the
// first call to Chunks and kept for the life of the process; a failed read
// is cached as an empty list.
type Store struct {
	source Source
	opts   ParseOptions

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
	chunks []*model.KnowledgeChunk
}

func NewStore(source Source, opts ParseOptions) *Store {
	return &Store{source: source, opts: opts}
}

// Chunks returns the cached chunks, loading them once. The returned slice is
// shared and must not be modified.
func (s *Store) Chunks(ctx context.Context) []*model.KnowledgeChunk {
	if chunks, ok := s.cached(); ok {
		return chunks
	}
	v, _, _ := s.group.Do("load", func() (interface{}, error) {
		if chunks, ok := s.cached(); ok {
			return chunks, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		chunks := s.load(loadCtx)
		s.mu.Lock()
		s.chunks = chunks
		s.loaded = true
		s.mu.Unlock()
		return chunks, nil
	})
	return v.([]*model.KnowledgeChunk)
}

func (s *Store) cached() ([]*model.KnowledgeChunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks, s.loaded
}

func (s *Store) load(ctx context.Context) []*model.KnowledgeChunk {
	logger := logutil.GetLogger(ctx)
	if s.source == nil {
		logger.Warn("knowledge source not configured, continuing without retrieval context")
		return []*model.KnowledgeChunk{}
	}
	data, err := s.source.Read(ctx)
	if err != nil {
		logger.Warn("read knowledge document failed, continuing without retrieval context",
			zap.String("source", s.source.Name()),
			zap.Error(err),
		)
		return []*model.KnowledgeChunk{}
	}
	return Parse(ctx, data, s.opts)
}
