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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizcore/llm"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/storage"
)

func TestGetQuizSanitized(t *testing.T) {
	svc, _ := newTestService(t, nil)
	quizID := seedQuiz(t, svc)

	q, err := svc.GetQuiz(context.Background(), quizID, false)
	require.NoError(t, err)
	for _, question := range q.Questions {
		assert.Empty(t, question.CorrectAnswer)
		assert.Empty(t, question.Explanation)
		assert.Empty(t, question.Hints)
	}
}

func TestGetQuizIncludeHints(t *testing.T) {
	gateway := llm.NewGateway(&fakeProvider{name: "openai", text: `"Try halves first."`}, nil)
	svc, _ := newTestService(t, gateway)
	quizID := seedQuiz(t, svc)

	hint, err := svc.GenerateHint(context.Background(), quizID, "q_1")
	require.NoError(t, err)
	assert.Equal(t, "Try halves first.", hint)

	q, err := svc.GetQuiz(context.Background(), quizID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Try halves first."}, q.Questions[0].Hints)
	assert.Empty(t, q.Questions[0].CorrectAnswer)
}

func TestGenerateHintLimit(t *testing.T) {
	gateway := llm.NewGateway(&fakeProvider{name: "openai", text: `"another hint"`}, nil)
	svc, store := newTestService(t, gateway)
	quizID := seedQuiz(t, svc)

	for i := 0; i < maxHintsPerQuestion; i++ {
		_, err := svc.GenerateHint(context.Background(), quizID, "q_1")
		require.NoError(t, err)
	}
	_, err := svc.GenerateHint(context.Background(), quizID, "q_1")
	require.ErrorContains(t, err, "already has 5 hints")

	stored, err := store.GetQuizByID(context.Background(), quizID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions[0].Hints, maxHintsPerQuestion)
}

func TestGenerateHintUnknownQuestion(t *testing.T) {
	gateway := llm.NewGateway(&fakeProvider{name: "openai", text: `"hint"`}, nil)
	svc, _ := newTestService(t, gateway)
	quizID := seedQuiz(t, svc)

	_, err := svc.GenerateHint(context.Background(), quizID, "nope")
	require.ErrorIs(t, err, storage.ErrQuestionNotFound)
}

func TestDuplicateQuiz(t *testing.T) {
	svc, store := newTestService(t, nil)
	quizID := seedQuiz(t, svc)

	copyQ, err := svc.DuplicateQuiz(context.Background(), quizID, "u2")
	require.NoError(t, err)
	assert.NotEqual(t, quizID, copyQ.ID)
	assert.Equal(t, "Fractions (Copy)", copyQ.Title)
	assert.Equal(t, "u2", copyQ.CreatedBy)
	assert.False(t, copyQ.IsPublic)
	assert.Equal(t, 1, copyQ.Version)

	// The copy is a private draft with its own stored solutions.
	stored, err := store.GetQuizByID(context.Background(), copyQ.ID)
	require.NoError(t, err)
	assert.Equal(t, "3/4", stored.Questions[0].CorrectAnswer)

	// Mutating the copy leaves the original alone.
	title := "Renamed copy"
	_, err = svc.UpdateQuiz(context.Background(), copyQ.ID, storage.QuizPatch{Title: &title}, 1)
	require.NoError(t, err)
	original, err := store.GetQuizByID(context.Background(), quizID)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", original.Title)
}

func TestListQuizzesHidesDeleted(t *testing.T) {
	svc, _ := newTestService(t, nil)
	first := seedQuiz(t, svc)
	_ = seedQuiz(t, svc)
	require.NoError(t, svc.DeleteQuiz(context.Background(), first))

	quizzes, total, err := svc.ListQuizzes(context.Background(), storage.QuizFilter{}, storage.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, quizzes, 1)
	assert.NotEqual(t, first, quizzes[0].ID)
}

func TestCreateQuizValidates(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.CreateQuiz(context.Background(), &quiz.Quiz{
		Title: "Broken",
		Metadata: quiz.Metadata{
			Grade: 13, Subject: "Math", TotalQuestions: 1,
			TimeLimitMinutes: 10, Difficulty: quiz.DifficultyEasy,
		},
	})
	var verr *quiz.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "metadata.grade", verr.Field)
}
