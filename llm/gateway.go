//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quizforge/quizcore/log"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
	"github.com/quizforge/quizcore/telemetry"
)

// Default per-operation deadlines.
const (
	defaultGenerateTimeout = 30 * time.Second
	defaultHintTimeout     = 10 * time.Second
	defaultEvaluateTimeout = 20 * time.Second

	defaultMaxOutputTokens = 4096
	defaultHintMaxTokens   = 256
	defaultTemperature     = 0.7
)

// Gateway fronts the primary and fallback providers. Calls go to the primary
// first; on any failure (timeout, transport error, empty body, parse failure)
// the fallback is tried. Providers are never raced.
type Gateway struct {
	primary  Provider
	fallback Provider

	generateTimeout time.Duration
	hintTimeout     time.Duration
	evaluateTimeout time.Duration
	maxOutputTokens int
	temperature     float64
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGenerateTimeout overrides the question-generation deadline.
func WithGenerateTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.generateTimeout = d }
}

// WithHintTimeout overrides the hint deadline.
func WithHintTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.hintTimeout = d }
}

// WithEvaluateTimeout overrides the evaluation deadline.
func WithEvaluateTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.evaluateTimeout = d }
}

// WithMaxOutputTokens overrides the output budget for generation calls.
func WithMaxOutputTokens(n int) GatewayOption {
	return func(g *Gateway) { g.maxOutputTokens = n }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) GatewayOption {
	return func(g *Gateway) { g.temperature = t }
}

// NewGateway creates a gateway over the primary and fallback providers.
// The fallback may be nil, in which case a primary failure is terminal.
func NewGateway(primary, fallback Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		primary:         primary,
		fallback:        fallback,
		generateTimeout: defaultGenerateTimeout,
		hintTimeout:     defaultHintTimeout,
		evaluateTimeout: defaultEvaluateTimeout,
		maxOutputTokens: defaultMaxOutputTokens,
		temperature:     defaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateQuestions generates quiz questions per the given parameters.
func (g *Gateway) GenerateQuestions(ctx context.Context, params GenerationParams) ([]quiz.Question, error) {
	req := &Request{
		Prompt:          buildGenerationPrompt(params),
		MaxOutputTokens: g.maxOutputTokens,
		Temperature:     g.temperature,
	}
	var questions []quiz.Question
	_, err := g.invoke(ctx, "generate_questions", g.generateTimeout, req, func(rsp *Response) error {
		parsed, err := parseQuestions(rsp.Text)
		if err != nil {
			return err
		}
		questions = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GenerateHint generates a single hint for the question.
func (g *Gateway) GenerateHint(ctx context.Context, q quiz.Question) (string, error) {
	req := &Request{
		Prompt:          buildHintPrompt(q),
		MaxOutputTokens: defaultHintMaxTokens,
		Temperature:     g.temperature,
	}
	var hint string
	_, err := g.invoke(ctx, "generate_hint", g.hintTimeout, req, func(rsp *Response) error {
		hint = strings.Trim(strings.TrimSpace(rsp.Text), `"`)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hint, nil
}

// EvaluateSubmission evaluates graded answers and returns exactly two
// actionable suggestions plus strengths and weaknesses.
func (g *Gateway) EvaluateSubmission(ctx context.Context, questions []quiz.Question,
	answers []submission.Answer) (*Evaluation, error) {
	req := &Request{
		Prompt:          buildEvaluationPrompt(questions, answers),
		MaxOutputTokens: g.maxOutputTokens,
		Temperature:     g.temperature,
	}
	var eval *Evaluation
	provider, err := g.invoke(ctx, "evaluate_submission", g.evaluateTimeout, req, func(rsp *Response) error {
		parsed, err := parseEvaluation(rsp.Text)
		if err != nil {
			return err
		}
		eval = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	eval.Provider = provider
	return eval, nil
}

// invoke runs one operation against the primary and then, on any failure, the
// fallback. It returns the name of the provider that served the call.
func (g *Gateway) invoke(ctx context.Context, operation string, timeout time.Duration,
	req *Request, handle func(*Response) error) (string, error) {
	providers := []Provider{g.primary, g.fallback}
	for i, p := range providers {
		if p == nil {
			continue
		}
		perr := g.callOne(ctx, p, operation, timeout, req, handle)
		if perr == nil {
			return p.Name(), nil
		}
		log.Warnf("provider %s failed %s (%s, %s): %v; preview: %q",
			perr.Provider, operation, perr.Kind, perr.Latency.Round(time.Millisecond), perr.Err, perr.Preview)
		if i == 0 && g.fallback != nil {
			if telemetry.ProviderFailovers != nil {
				telemetry.ProviderFailovers.Add(ctx, 1)
			}
		}
	}
	return "", ErrProviderExhausted
}

// callOne performs a single provider call under the operation deadline and
// classifies any failure.
func (g *Gateway) callOne(ctx context.Context, p Provider, operation string,
	timeout time.Duration, req *Request, handle func(*Response) error) *ProviderError {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rsp, err := p.Complete(cctx, req)
	latency := time.Since(start)

	fail := func(kind FailureKind, text string, cause error) *ProviderError {
		telemetry.RecordProviderCall(ctx, p.Name(), operation, string(kind), latency.Seconds())
		return &ProviderError{
			Provider: p.Name(),
			Kind:     kind,
			Latency:  latency,
			Preview:  preview(text),
			Err:      cause,
		}
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || cctx.Err() != nil {
			return fail(KindTimeout, "", err)
		}
		return fail(KindTransport, "", err)
	}
	if rsp == nil || strings.TrimSpace(rsp.Text) == "" {
		return fail(KindEmpty, "", errors.New("empty provider response"))
	}
	if err := handle(rsp); err != nil {
		return fail(KindParse, rsp.Text, err)
	}
	telemetry.RecordProviderCall(ctx, p.Name(), operation, "ok", latency.Seconds())
	return nil
}
