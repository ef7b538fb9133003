package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/gsqlai/internal/model"
)

type ManagerConfig struct {
	// Timeout in seconds for one upstream call; zero means no extra deadline.
	Timeout int
}

type Manager struct {
	generator IGenerator
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, cfg ManagerConfig) *Manager {
	return &Manager{generator: generator, cfg: cfg}
}

func (m *Manager) Configured() bool {
	return m != nil && m.generator != nil && m.generator.Configured()
}

func (m *Manager) Name() string {
	if m == nil || m.generator == nil {
		return ""
	}
	return m.generator.Name()
}

// Converse makes a single upstream attempt. There is no retry.
func (m *Manager) Converse(ctx context.Context, turns []model.ChatTurn) (string, error) {
	if !m.Configured() {
		return "", ErrUnavailable
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Converse(ctx, turns)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}
