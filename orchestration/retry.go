//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package orchestration

import (
	"context"
	"time"
)

// withBackoff runs fn up to 1+retries times, doubling the delay between
// attempts. Only errors accepted by retryable are retried; the last error is
// returned when the budget is spent.
func withBackoff(ctx context.Context, retries int, initial time.Duration,
	retryable func(error) bool, fn func() error) error {
	delay := initial
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
