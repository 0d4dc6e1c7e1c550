package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/stargazer/pkg/adapters/upstream"
)

// TimeLayout formats the server time shown on the index page
const TimeLayout = "2006-01-02 15:04:05"

// Upstream names used in logs, metrics and errors
const (
	UpstreamAdvice = "advice"
	UpstreamAPOD   = "apod"
)

// Fetcher issues GET requests to upstream APIs
type Fetcher interface {
	GetJSON(ctx context.Context, name, url string) (*upstream.Response, error)
}

// Service assembles the context data for each page
type Service struct {
	fetcher   Fetcher
	adviceURL string
	apodURL   string
	now       func() time.Time
}

// Config holds Service configuration
type Config struct {
	Fetcher   Fetcher
	AdviceURL string
	APODURL   string // full URL, key included
	Now       func() time.Time
}

// NewService creates a new page service
func NewService(cfg *Config) *Service {
	s := &Service{
		fetcher:   cfg.Fetcher,
		adviceURL: cfg.AdviceURL,
		apodURL:   cfg.APODURL,
		now:       cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ServerTime returns the current local time formatted for display
func (s *Service) ServerTime() string {
	return s.now().Local().Format(TimeLayout)
}

// Index returns the context for the index page
func (s *Service) Index() map[string]any {
	return map[string]any{"serverTime": s.ServerTime()}
}

// Advice fetches a piece of advice and returns the context for the advice page
func (s *Service) Advice(ctx context.Context) (map[string]any, error) {
	return s.fetch(ctx, UpstreamAdvice, s.adviceURL)
}

// APOD fetches the astronomy picture of the day and returns the context for the apod page
func (s *Service) APOD(ctx context.Context) (map[string]any, error) {
	return s.fetch(ctx, UpstreamAPOD, s.apodURL)
}

// Params returns the context for the params page. An absent name is the empty string.
func (s *Service) Params(name string) map[string]any {
	return map[string]any{"name": name}
}

// fetch passes the upstream JSON body through unchanged
func (s *Service) fetch(ctx context.Context, name, url string) (map[string]any, error) {
	resp, err := s.fetcher.GetJSON(ctx, name, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	return map[string]any{"data": resp.Body}, nil
}
