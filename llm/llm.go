//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package llm provides the AI provider gateway: a uniform interface over two
// external providers with automatic failover and defensive response parsing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request is the provider-agnostic completion request.
type Request struct {
	// Prompt is the full text prompt.
	Prompt string
	// MaxOutputTokens bounds the output budget.
	MaxOutputTokens int
	// Temperature controls sampling randomness.
	Temperature float64
}

// Response is the provider-agnostic completion response.
type Response struct {
	// Text is the raw provider output.
	Text string
	// Provider is the adapter name that produced the text.
	Provider string
	// Latency is the wall-clock call duration.
	Latency time.Duration
}

// Provider is a pluggable adapter over one external LLM service.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the provider in logs and responses.
	Name() string
	// Complete returns raw text for the prompt within the context deadline.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// FailureKind classifies a single provider failure.
type FailureKind string

// Failure kinds. All are internal to the gateway; after both providers fail
// only ErrProviderExhausted escapes.
const (
	KindTimeout   FailureKind = "timeout"
	KindTransport FailureKind = "transport"
	KindEmpty     FailureKind = "empty"
	KindParse     FailureKind = "parse"
)

// ErrProviderExhausted is returned after both the primary and the fallback
// provider failed to produce parseable output within their deadlines.
var ErrProviderExhausted = errors.New("all AI providers exhausted")

// ProviderError describes a single failed provider call.
type ProviderError struct {
	Provider string
	Kind     FailureKind
	Latency  time.Duration
	// Preview holds at most 200 characters of the provider output.
	Preview string
	Err     error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s %s after %s: %v", e.Provider, e.Kind, e.Latency.Round(time.Millisecond), e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

const previewLimit = 200

// preview truncates provider output for diagnostics.
func preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit]
}
