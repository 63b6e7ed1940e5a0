// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bluefin

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a per-host rate limiter. It allows a burst of up to maxTokens
// requests, then enforces the steady rate. Acquire blocks until a token is
// available or ctx is cancelled.
type TokenBucket struct {
	// acquireMu serializes Acquire, held across the wait so queued callers
	// are admitted one per interval instead of all at once.
	acquireMu  sync.Mutex
	mu         sync.Mutex // guards the fields below
	rate       float64    // tokens per second
	maxTokens  float64
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a bucket starting full.
func NewTokenBucket(rate, maxTokens float64) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &TokenBucket{
		rate:       rate,
		maxTokens:  maxTokens,
		tokens:     maxTokens,
		lastRefill: time.Now(),
	}
}

// Acquire consumes one token, sleeping if the bucket is empty. The wait is
// (1 - tokens) / rate; after waiting the bucket is left at zero so a burst
// cannot rebuild while callers are queued.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	b.acquireMu.Lock()
	defer b.acquireMu.Unlock()

	b.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.maxTokens, b.tokens+elapsed*b.rate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}

	wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	b.tokens = 0
	b.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetRate replaces the steady rate, used when robots.txt declares a
// crawl-delay (rate becomes 1/delay, in either direction).
func (b *TokenBucket) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	b.mu.Lock()
	b.rate = rate
	b.mu.Unlock()
}

// Rate returns the current steady rate in requests per second.
func (b *TokenBucket) Rate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

// hostLimiters hands out one TokenBucket per host.
type hostLimiters struct {
	rate      float64
	maxTokens float64
	buckets   sync.Map // host -> *TokenBucket
}

func newHostLimiters(rate float64) *hostLimiters {
	return &hostLimiters{
		rate:      rate,
		maxTokens: min(rate*3, 10),
	}
}

func (h *hostLimiters) get(host string) *TokenBucket {
	if b, ok := h.buckets.Load(host); ok {
		return b.(*TokenBucket)
	}
	b, _ := h.buckets.LoadOrStore(host, NewTokenBucket(h.rate, h.maxTokens))
	return b.(*TokenBucket)
}
