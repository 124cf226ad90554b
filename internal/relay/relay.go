// Package relay implements the core request forwarding logic.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"offlinetube-relay/internal/client"
	"offlinetube-relay/internal/config"
	"offlinetube-relay/internal/model"
)

// Service forwards inbound requests to the OfflineTube backend. The backend
// origin is fixed at construction and immutable for the process lifetime.
type Service struct {
	client  *client.BackendClient
	logger  *slog.Logger
	baseURL *url.URL
}

// NewService creates a Service targeting the configured backend origin.
func NewService(c *client.BackendClient, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base_url: %w", err)
	}

	return &Service{
		client:  c,
		logger:  logger.With("component", "relay_service"),
		baseURL: u,
	}, nil
}

// Call issues exactly one request against the backend: origin + path + encoded
// query, no retry, no backoff. The path is taken unescaped; percent-encoding of
// path segments and query values happens during URL serialization. The caller
// is responsible for closing the response body.
func (s *Service) Call(ctx context.Context, method, path string, query url.Values) (*model.RelayResponse, error) {
	target := s.buildBackendURL(path, query)

	s.logger.Debug("forwarding request",
		"method", method,
		"path", path,
	)

	resp, err := s.client.Call(ctx, method, target)
	if err != nil {
		return nil, fmt.Errorf("forward to backend: %w", err)
	}

	return resp, nil
}

// BackendURL reports the configured backend origin.
func (s *Service) BackendURL() string {
	return s.baseURL.String()
}

func (s *Service) buildBackendURL(path string, query url.Values) string {
	u := *s.baseURL
	u.Path = path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
