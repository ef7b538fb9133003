package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("ai provider not configured")
	ErrRateLimited  = errors.New("ai provider rate limited")
	ErrUpstreamAuth = errors.New("ai provider rejected credentials")
)

// classifyStatus maps an upstream HTTP status onto the sentinel errors callers
// branch on. Other failures are returned unchanged.
func classifyStatus(code int, err error) error {
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	case http.StatusBadRequest:
		// gemini reports a bad key as 400 INVALID_ARGUMENT
		if strings.Contains(err.Error(), "API key not valid") || strings.Contains(err.Error(), "API_KEY_INVALID") {
			return fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
		}
	}
	return err
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
