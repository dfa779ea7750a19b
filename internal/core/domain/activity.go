package domain

import "time"

// Admin actions recorded in the activity log.
const (
	ActionApproveDocument     = "APPROVE_DOCUMENT"
	ActionRejectDocument      = "REJECT_DOCUMENT"
	ActionBulkApprove         = "BULK_APPROVE"
	ActionApproveAllDocuments = "APPROVE_ALL_DOCUMENTS"
)

// Targets referenced by activity entries.
const (
	TargetDocument = "DOCUMENT"
	TargetClient   = "CLIENT"
)

// AdminActivityLog is an append-only audit record of an admin action.
type AdminActivityLog struct {
	ID         string
	AdminID    string
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
	CreatedAt  time.Time
}

// ActivityEntry is an audit record joined with the acting admin.
type ActivityEntry struct {
	AdminActivityLog
	AdminEmail string
	AdminName  string
}

// AdminStats summarizes the platform for the admin dashboard.
type AdminStats struct {
	TotalClients        int
	CompletedOnboarding int
	PendingDocuments    int
	ApprovedDocuments   int
	RejectedDocuments   int
	TotalDocuments      int
}

// ClientSummary is a client row in the admin client listing.
type ClientSummary struct {
	Client           Client
	OnboardingStatus OnboardingStatus
	CurrentStep      int
	DocumentCount    int
	PendingDocuments int
}

// ClientFilter narrows the admin client listing.
type ClientFilter struct {
	Search string
	Role   Role
	Limit  int
	Offset int
}
