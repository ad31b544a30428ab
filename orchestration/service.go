//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package orchestration composes the stores, the provider gateway and the
// performance projector into the submission and synthesis flows.
package orchestration

import (
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/quizforge/quizcore/llm"
	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/storage"
)

const (
	defaultPoolSize       = 32
	defaultAttemptRetries = 3
	defaultAttemptBackoff = 25 * time.Millisecond
)

// Service bundles the quiz core behind the two orchestrated entry points
// plus the plain store pass-throughs.
type Service struct {
	quizzes     storage.QuizStore
	submissions storage.SubmissionStore
	performance storage.PerformanceStore
	gateway     *llm.Gateway
	projector   *performance.Projector

	pool           *ants.PoolWithFunc
	attemptRetries int
	attemptBackoff time.Duration
	now            func() time.Time
}

// options holds the service configuration.
type serviceOptions struct {
	poolSize       int
	attemptRetries int
	attemptBackoff time.Duration
	projector      *performance.Projector
	now            func() time.Time
}

// Option configures the service.
type Option func(*serviceOptions)

// WithPoolSize bounds the side-effect worker pool.
func WithPoolSize(n int) Option {
	return func(o *serviceOptions) { o.poolSize = n }
}

// WithAttemptRetries sets the retry budget for attempt-number collisions.
func WithAttemptRetries(n int) Option {
	return func(o *serviceOptions) { o.attemptRetries = n }
}

// WithAttemptBackoff sets the initial delay between attempt-number retries.
func WithAttemptBackoff(d time.Duration) Option {
	return func(o *serviceOptions) { o.attemptBackoff = d }
}

// WithProjector substitutes a pre-configured projector.
func WithProjector(p *performance.Projector) Option {
	return func(o *serviceOptions) { o.projector = p }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// New creates the service. The gateway may be nil, in which case AI-backed
// operations degrade: generation and hints fail, evaluation is skipped.
func New(quizzes storage.QuizStore, submissions storage.SubmissionStore,
	perf storage.PerformanceStore, gateway *llm.Gateway, opts ...Option) (*Service, error) {
	o := serviceOptions{
		poolSize:       defaultPoolSize,
		attemptRetries: defaultAttemptRetries,
		attemptBackoff: defaultAttemptBackoff,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.projector == nil {
		o.projector = performance.NewProjector(perf)
	}

	pool, err := newSideEffectPool(o.poolSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		quizzes:        quizzes,
		submissions:    submissions,
		performance:    perf,
		gateway:        gateway,
		projector:      o.projector,
		pool:           pool,
		attemptRetries: o.attemptRetries,
		attemptBackoff: o.attemptBackoff,
		now:            o.now,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}
