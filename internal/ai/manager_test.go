package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/gsqlai/internal/model"
)

type fakeGenerator struct {
	configured bool
	reply      string
	err        error
	calls      int
	deadline   bool
}

func (f *fakeGenerator) Name() string {
	return "fake/model"
}

func (f *fakeGenerator) Configured() bool {
	return f.configured
}

func (f *fakeGenerator) Converse(ctx context.Context, turns []model.ChatTurn) (string, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.reply, f.err
}

func TestManager_NotConfigured(t *testing.T) {
	gen := &fakeGenerator{configured: false}
	m := NewManager(gen, ManagerConfig{})
	require.False(t, m.Configured())
	_, err := m.Converse(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 0, gen.calls)

	var nilManager *Manager
	require.False(t, nilManager.Configured())
	require.Equal(t, "", nilManager.Name())
}

func TestManager_TrimsAndAppliesTimeout(t *testing.T) {
	gen := &fakeGenerator{configured: true, reply: "  answer \n"}
	m := NewManager(gen, ManagerConfig{Timeout: 5})
	out, err := m.Converse(context.Background(), []model.ChatTurn{{Role: model.RoleUser, Content: "q"}})
	require.NoError(t, err)
	require.Equal(t, "answer", out)
	require.True(t, gen.deadline)
	require.Equal(t, 1, gen.calls)
	require.Equal(t, "fake/model", m.Name())
}

func TestManager_EmptyResponse(t *testing.T) {
	gen := &fakeGenerator{configured: true, reply: "   "}
	m := NewManager(gen, ManagerConfig{Timeout: int((time.Second).Seconds())})
	_, err := m.Converse(context.Background(), nil)
	require.Error(t, err)
}

func TestManager_SingleAttemptOnError(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: ErrRateLimited}
	m := NewManager(gen, ManagerConfig{})
	_, err := m.Converse(context.Background(), nil)
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, 1, gen.calls)
	require.False(t, gen.deadline)
}
