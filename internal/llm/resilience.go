package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"
)

type fallbackGenerator struct {
	primary   TextGenerator
	secondary TextGenerator
}

// NewFallback returns a generator that retries a failed prompt once on
// secondary. A nil secondary returns primary unchanged.
func NewFallback(primary, secondary TextGenerator) TextGenerator {
	if secondary == nil {
		return primary
	}
	return &fallbackGenerator{primary: primary, secondary: secondary}
}

func (f *fallbackGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := f.primary.GenerateContent(ctx, prompt)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return ContentResponse{}, err
	}
	log.Printf("Primary model failed, falling back: %v", err)

	resp, fbErr := f.secondary.GenerateContent(ctx, prompt)
	if fbErr != nil {
		return ContentResponse{}, errors.Join(err, fmt.Errorf("fallback: %w", fbErr))
	}
	return resp, nil
}

type rateLimitedGenerator struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited spaces calls to next so no more than requestsPerMinute
// prompts are sent per minute. Callers wait; they are never rejected.
func NewRateLimited(next TextGenerator, requestsPerMinute int) TextGenerator {
	if requestsPerMinute <= 0 {
		return next
	}
	return &rateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (r *rateLimitedGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.GenerateContent(ctx, prompt)
}
