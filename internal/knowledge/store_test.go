package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingSource struct {
	data  []byte
	err   error
	delay time.Duration
	reads atomic.Int32
}

func (s *countingSource) Name() string {
	return "counting"
}

func (s *countingSource) Read(ctx context.Context) ([]byte, error) {
	s.reads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.data, s.err
}

func TestStore_LoadsOnceUnderConcurrency(t *testing.T) {
	src := &countingSource{data: []byte(sampleDoc), delay: 20 * time.Millisecond}
	store := NewStore(src, ParseOptions{})

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(store.Chunks(context.Background()))
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), src.reads.Load())
	for _, n := range results {
		require.Equal(t, 2, n)
	}
	require.Len(t, store.Chunks(context.Background()), 2)
	require.Equal(t, int32(1), src.reads.Load())
}

func TestStore_ReadFailureYieldsEmptyAndIsCached(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	store := NewStore(src, ParseOptions{})

	chunks := store.Chunks(context.Background())
	require.NotNil(t, chunks)
	require.Empty(t, chunks)
	require.Empty(t, store.Chunks(context.Background()))
	require.Equal(t, int32(1), src.reads.Load())
}

func TestStore_NilSource(t *testing.T) {
	store := NewStore(nil, ParseOptions{})
	require.Empty(t, store.Chunks(context.Background()))
}

func TestStore_LocalFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	store := NewStore(NewFileSource(path), ParseOptions{})
	require.Len(t, store.Chunks(context.Background()), 2)

	missing := NewStore(NewFileSource(filepath.Join(t.TempDir(), "nope.md")), ParseOptions{})
	require.Empty(t, missing.Chunks(context.Background()))
}

type contextSource struct {
	data []byte
}

func (s *contextSource) Name() string {
	return "context"
}

func (s *contextSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data, nil
}

func TestStore_CancelledFirstCallerDoesNotEmptyCache(t *testing.T) {
	store := NewStore(&contextSource{data: []byte(sampleDoc)}, ParseOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Len(t, store.Chunks(ctx), 2)
	require.Len(t, store.Chunks(context.Background()), 2)
}
