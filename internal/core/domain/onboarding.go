package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// OnboardingStatus is the overall state of a client's onboarding.
type OnboardingStatus string

const (
	OnboardingPending    OnboardingStatus = "PENDING"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

// Valid reports whether s is a known onboarding status.
func (s OnboardingStatus) Valid() bool {
	switch s {
	case OnboardingPending, OnboardingInProgress, OnboardingCompleted:
		return true
	default:
		return false
	}
}

// StepStatus is the state of a single step for a single client.
type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
	StepSkipped    StepStatus = "SKIPPED"
)

// Valid reports whether s is a known step status.
func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepInProgress, StepCompleted, StepSkipped:
		return true
	default:
		return false
	}
}

// OnboardingStep is an entry of the global, ordered step catalog.
type OnboardingStep struct {
	ID          string
	StepNumber  int
	Name        string
	Title       string
	Description string
	IsRequired  bool
}

// StepCatalog is the ordered list of onboarding steps.
type StepCatalog []OnboardingStep

// NewStepCatalog returns the steps sorted by step number.
func NewStepCatalog(steps []OnboardingStep) StepCatalog {
	out := make(StepCatalog, len(steps))
	copy(out, steps)
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out
}

// Find returns the step with the given number.
func (c StepCatalog) Find(stepNumber int) (OnboardingStep, bool) {
	for _, s := range c {
		if s.StepNumber == stepNumber {
			return s, true
		}
	}
	return OnboardingStep{}, false
}

// Total is the number of steps in the catalog.
func (c StepCatalog) Total() int {
	return len(c)
}

// FinalStep is the highest step number, or 0 for an empty catalog.
func (c StepCatalog) FinalStep() int {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].StepNumber
}

// OnboardingProgress tracks a client's position in the wizard.
type OnboardingProgress struct {
	ID          string
	ClientID    string
	CurrentStep int
	Status      OnboardingStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StepProgress records the state and payload of one step for one client.
type StepProgress struct {
	ID          string
	ProgressID  string
	StepID      string
	Status      StepStatus
	Data        json.RawMessage
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StepState is a catalog step joined with the client's progress on it.
type StepState struct {
	Step        OnboardingStep
	Status      StepStatus
	Data        json.RawMessage
	CompletedAt *time.Time
}

// OnboardingOverview is the read model returned by the status query.
type OnboardingOverview struct {
	Progress       OnboardingProgress
	TotalSteps     int
	CompletedSteps int
	Steps          []StepState
}

// Percent is the share of completed steps, rounded down.
func (o OnboardingOverview) Percent() int {
	if o.TotalSteps == 0 {
		return 0
	}
	return o.CompletedSteps * 100 / o.TotalSteps
}
