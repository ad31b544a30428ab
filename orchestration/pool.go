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
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// sideEffectParam carries one best-effort task through the worker pool.
type sideEffectParam struct {
	ctx context.Context
	fn  func(ctx context.Context)
	wg  *sync.WaitGroup
}

func (p *sideEffectParam) reset() {
	p.ctx = nil
	p.fn = nil
	p.wg = nil
}

var sideEffectParamPool = &sync.Pool{
	New: func() any { return new(sideEffectParam) },
}

func newSideEffectPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*sideEffectParam)
		if !ok {
			panic("side effect pool args type error")
		}
		wg := param.wg
		fn, ctx := param.fn, param.ctx
		defer func() {
			wg.Done()
			param.reset()
			sideEffectParamPool.Put(param)
		}()
		fn(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("create side effect pool: %w", err)
	}
	return pool, nil
}

// runTask schedules fn on the pool and registers it on wg. When the pool is
// saturated or released the task runs inline so best-effort work still happens.
func (s *Service) runTask(ctx context.Context, wg *sync.WaitGroup, fn func(ctx context.Context)) {
	wg.Add(1)
	param := sideEffectParamPool.Get().(*sideEffectParam)
	param.ctx = ctx
	param.fn = fn
	param.wg = wg
	if err := s.pool.Invoke(param); err != nil {
		param.reset()
		sideEffectParamPool.Put(param)
		fn(ctx)
		wg.Done()
	}
}
