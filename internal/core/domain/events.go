package domain

import "time"

// ClientRegisteredEvent is published after a successful signup.
type ClientRegisteredEvent struct {
	EventID      string
	ClientID     string
	Email        string
	RegisteredAt time.Time
}

// StepCompletedEvent is published whenever an onboarding step is completed.
type StepCompletedEvent struct {
	EventID     string
	ClientID    string
	StepNumber  int
	StepName    string
	CurrentStep int
	CompletedAt time.Time
}

// OnboardingCompletedEvent is published when the final step is completed.
type OnboardingCompletedEvent struct {
	EventID     string
	ClientID    string
	CompletedAt time.Time
}

// DocumentUploadedEvent is published when a client registers a document.
type DocumentUploadedEvent struct {
	EventID    string
	DocumentID string
	ClientID   string
	Category   DocumentCategory
	FileType   string
	FileSize   int64
	UploadedAt time.Time
}

// DocumentReviewedEvent is published for every admin status change.
type DocumentReviewedEvent struct {
	EventID    string
	DocumentID string
	ClientID   string
	AdminID    string
	Status     VerificationStatus
	Reason     *string
	ReviewedAt time.Time
}
