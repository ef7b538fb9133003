package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/gsqlai/internal/model"
)

// IProvider talks to one hosted text-generation backend. Converse sends the
// turns in order and returns the text of the reply.
type IProvider interface {
	Name() string
	Configured() bool
	Converse(ctx context.Context, modelName string, turns []model.ChatTurn) (string, error)
}

type IGenerator interface {
	Name() string
	Configured() bool
	Converse(ctx context.Context, turns []model.ChatTurn) (string, error)
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, modelName string) IGenerator {
	return &generator{provider: p, model: modelName}
}

func (g *generator) Name() string {
	return g.provider.Name() + "/" + g.model
}

func (g *generator) Configured() bool {
	return g.provider.Configured()
}

func (g *generator) Converse(ctx context.Context, turns []model.ChatTurn) (string, error) {
	return g.provider.Converse(ctx, g.model, turns)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
