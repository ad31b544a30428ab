//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustHotStreak(t *testing.T) {
	// Five fast correct answers, no hints, six questions remaining.
	answers := make([]AnswerSample, 5)
	for i := range answers {
		answers[i] = AnswerSample{Correct: true, TimeSpent: 60}
	}
	adj := Adjust(answers, 6)
	assert.Equal(t, AdjustHarder, adj.Direction)
	assert.GreaterOrEqual(t, adj.Score, 0.7)
}

func TestAdjustTooFewAnswers(t *testing.T) {
	adj := Adjust([]AnswerSample{{Correct: true}}, 10)
	assert.Equal(t, AdjustMaintain, adj.Direction)

	adj = Adjust(nil, 10)
	assert.Equal(t, AdjustMaintain, adj.Direction)
}

func TestAdjustExactlyTwoAnswersMaintains(t *testing.T) {
	adj := Adjust([]AnswerSample{
		{Correct: true, TimeSpent: 30},
		{Correct: true, TimeSpent: 30},
	}, 8)
	// Two answers produce a score but never a direction change.
	assert.Equal(t, AdjustMaintain, adj.Direction)
	assert.NotZero(t, adj.Score)
}

func TestAdjustColdStreakGoesEasier(t *testing.T) {
	answers := make([]AnswerSample, 6)
	for i := range answers {
		answers[i] = AnswerSample{Correct: false, TimeSpent: 150, HintsUsed: 2}
	}
	adj := Adjust(answers, 5)
	assert.Equal(t, AdjustEasier, adj.Direction)
	assert.LessOrEqual(t, adj.Score, -0.7)
}

func TestAdjustLateAttemptDamping(t *testing.T) {
	answers := make([]AnswerSample, 5)
	for i := range answers {
		answers[i] = AnswerSample{Correct: true, TimeSpent: 60}
	}
	full := Adjust(answers, 6)
	late := Adjust(answers, 2)
	assert.Equal(t, AdjustMaintain, late.Direction)
	assert.InDelta(t, full.Score*0.7, late.Score, 1e-9)
}

func TestAdjustScoreClamped(t *testing.T) {
	answers := make([]AnswerSample, 12)
	for i := range answers {
		answers[i] = AnswerSample{Correct: i >= 2, TimeSpent: 40}
	}
	adj := Adjust(answers, 8)
	assert.LessOrEqual(t, adj.Score, 1.0)
	assert.GreaterOrEqual(t, adj.Score, -1.0)
}
