package knowledge

import (
	"context"
	"fmt"
	"os"
)

type localConfig struct {
	Path string `json:"path"`
}

type localSource struct {
	path string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("local knowledge source path is required")
	}
	return NewFileSource(cfg.Path), nil
}

func NewFileSource(path string) Source {
	return &localSource{path: path}
}

func (s *localSource) Name() string {
	return "local:" + s.path
}

func (s *localSource) Read(ctx context.Context) ([]byte, error) {
	_ = ctx
	return os.ReadFile(s.path)
}
