package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

type countingLister struct {
	calls atomic.Int32
	steps []domain.OnboardingStep
	err   error
}

func (l *countingLister) ListSteps(context.Context) ([]domain.OnboardingStep, error) {
	l.calls.Add(1)
	return l.steps, l.err
}

func TestStepCatalog_CachesAndSorts(t *testing.T) {
	lister := &countingLister{steps: []domain.OnboardingStep{
		{ID: "s2", StepNumber: 2, Name: domain.StepNameDocumentUpload},
		{ID: "s1", StepNumber: 1, Name: domain.StepNamePersonalInfo},
	}}
	catalog := NewStepCatalog(lister, time.Minute)

	first, err := catalog.Steps(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first[0].StepNumber)
	require.Equal(t, 2, first.FinalStep())

	_, err = catalog.Steps(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), lister.calls.Load())

	catalog.Invalidate()
	_, err = catalog.Steps(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), lister.calls.Load())
}

func TestStepCatalog_DoesNotCacheFailures(t *testing.T) {
	lister := &countingLister{err: errors.New("db down")}
	catalog := NewStepCatalog(lister, time.Minute)

	_, err := catalog.Steps(context.Background())
	require.Error(t, err)

	lister.err = nil
	lister.steps = []domain.OnboardingStep{{ID: "s1", StepNumber: 1}}
	steps, err := catalog.Steps(context.Background())
	require.NoError(t, err)
	require.Len(t, steps, 1)
}

func TestStepCatalog_RejectsEmptyCatalog(t *testing.T) {
	_, err := NewStepCatalog(&countingLister{}, 0).Steps(context.Background())
	require.Error(t, err)
}
