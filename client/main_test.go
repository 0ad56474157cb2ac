package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/models"
	"lingua/backend/screen"
)

type downTracker struct{}

var errDown = errors.New("tracker unavailable")

func (downTracker) UpdateLessonProgress(context.Context, models.LessonRecord) error { return errDown }
func (downTracker) AddXP(context.Context, int) error                                { return errDown }
func (downTracker) UnlockChapter(context.Context, string) error                     { return errDown }

func answeredSession(t *testing.T) *assessment.Session {
	t.Helper()
	a, err := catalog.Default().Get("chapter3-assessment")
	require.NoError(t, err)
	s := assessment.NewSession(a)
	for _, q := range a.Questions {
		require.NoError(t, s.Select(q.Correct))
		_, err := s.Advance()
		require.NoError(t, err)
	}
	return s
}

func TestSummarizeUnsavedProgressFails(t *testing.T) {
	s := answeredSession(t)
	require.Error(t, s.Complete(context.Background(), downTracker{}))

	var out bytes.Buffer
	err := summarize(&out, "Évaluation", s, screen.OutcomeAbandoned)
	assert.ErrorIs(t, err, errProgressNotSaved)
	assert.Empty(t, out.String())
}

func TestSummarizeAbandoned(t *testing.T) {
	a, err := catalog.Default().Get("chapter3-assessment")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, summarize(&out, a.Title, assessment.NewSession(a), screen.OutcomeAbandoned))
	assert.Contains(t, out.String(), "abandonnée")
}
