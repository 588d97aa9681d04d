// Package sources implements the two content-source variants that feed
// the ingestion pipeline: the Wikipedia Action API and arbitrary web
// pages. Both satisfy ContentSource and share the same
// fetch/parse/links shape so the ingestion orchestrator never branches
// on which one produced an article.
package sources

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"kgpack/internal/core"
)

// ErrArticleNotFound is returned by FetchArticle when the title or URL
// does not resolve to any content (Wikipedia 404/missingtitle, or a web
// fetch returning 404).
var ErrArticleNotFound = errors.New("sources: article not found")

// ContentSource abstracts fetching and parsing raw content into the
// graph store's ingestible shape, regardless of whether it came from
// the Wikipedia API or an arbitrary web page.
type ContentSource interface {
	FetchArticle(ctx context.Context, titleOrURL string) (core.SourceArticle, error)
	ParseSections(content string) []core.ParsedSection
	GetLinks(content string) []string
}

// retryConfig configures exponential backoff for transient HTTP
// failures (429 and 5xx).
type retryConfig struct {
	maxRetries   int
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
}

// retryWithBackoff executes fn, retrying up to cfg.maxRetries times on
// error with exponential backoff. classify decides whether an error is
// worth retrying at all; a non-retryable error returns immediately.
func retryWithBackoff(ctx context.Context, cfg retryConfig, classify func(error) bool, fn func() error) error {
	delay := cfg.initialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !classify(err) || attempt >= cfg.maxRetries {
			break
		}

		jitter := 0.5 + rand.Float64()*0.5
		wait := time.Duration(float64(delay) * jitter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.multiplier)
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}
	return fmt.Errorf("sources: gave up after retries: %w", lastErr)
}
