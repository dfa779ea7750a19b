package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

var errNoPendingDocuments = domain.BadRequest("No pending documents to approve")

// ReviewInput is an admin decision on one document.
type ReviewInput struct {
	Status domain.VerificationStatus
	Reason *string
}

// BulkApproveResult lists the documents a bulk approval changed.
type BulkApproveResult struct {
	Count       int
	DocumentIDs []string
}

// ClientDetail is the admin view of one client.
type ClientDetail struct {
	Client     domain.Client
	Onboarding *domain.OnboardingProgress
	Documents  []domain.Document
}

// ClientQuery narrows the admin client listing.
type ClientQuery struct {
	Search string
	Page   int
	Limit  int
}

// DocumentQuery narrows the admin document listing.
type DocumentQuery struct {
	Status   domain.VerificationStatus
	Category domain.DocumentCategory
	Page     int
	Limit    int
}

// AdminService implements the document review workflow and the admin read models.
type AdminService struct {
	clients    port.ClientRepository
	onboarding port.OnboardingRepository
	documents  port.DocumentRepository
	activity   port.ActivityRepository
	stats      port.StatsRepository
	tx         port.TxManager
	events     port.EventPublisher
	metrics    DocumentMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewAdminService constructs an AdminService.
func NewAdminService(
	clients port.ClientRepository,
	onboarding port.OnboardingRepository,
	documents port.DocumentRepository,
	activity port.ActivityRepository,
	stats port.StatsRepository,
	tx port.TxManager,
	events port.EventPublisher,
	logger *zap.Logger,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		clients:    clients,
		onboarding: onboarding,
		documents:  documents,
		activity:   activity,
		stats:      stats,
		tx:         tx,
		events:     events,
		metrics:    nopMetrics{},
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *AdminService) WithClock(clock func() time.Time) *AdminService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithMetrics attaches a metrics sink.
func (s *AdminService) WithMetrics(m DocumentMetrics) *AdminService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// SetDocumentStatus approves or rejects a document and records the decision. Repeating a
// decision is allowed and recorded again.
func (s *AdminService) SetDocumentStatus(ctx context.Context, adminID, documentID string, in ReviewInput) (*domain.Document, error) {
	if !in.Status.IsReviewOutcome() {
		return nil, domain.Validation("Invalid status", []domain.FieldError{{Field: "status", Message: "must be APPROVED or REJECTED"}})
	}

	doc, err := s.documents.GetWithOwner(ctx, documentID)
	if err != nil {
		return nil, notFoundOr(err, "Document not found", "get document")
	}

	var reason *string
	if in.Status == domain.VerificationRejected {
		if r := trimmedPtr(in.Reason); r != nil && *r != "" {
			reason = r
		}
	}

	action := domain.ActionApproveDocument
	if in.Status == domain.VerificationRejected {
		action = domain.ActionRejectDocument
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Documents.UpdateStatus(ctx, documentID, in.Status, reason, now); err != nil {
			return err
		}
		details := map[string]any{
			"fileName":    doc.FileName,
			"clientEmail": doc.Owner.Email,
		}
		if reason != nil {
			details["reason"] = *reason
		}
		return repos.Activity.Append(ctx, domain.AdminActivityLog{
			ID:         newID(),
			AdminID:    adminID,
			Action:     action,
			TargetType: domain.TargetDocument,
			TargetID:   documentID,
			Details:    details,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, notFoundOr(err, "Document not found", "update document status")
	}

	updated := doc.Document
	updated.VerificationStatus = in.Status
	updated.RejectionReason = reason
	updated.VerifiedAt = &now

	s.metrics.DocumentReviewed(string(in.Status), 1)
	s.publishReviewed(ctx, adminID, updated.ClientID, []string{documentID}, in.Status, reason, now)
	s.logger.Info("document reviewed",
		zap.String("admin_id", adminID),
		zap.String("document_id", documentID),
		zap.String("status", string(in.Status)),
	)
	return &updated, nil
}

// BulkApprove approves the PENDING documents among ids. Documents in any other state are skipped.
func (s *AdminService) BulkApprove(ctx context.Context, adminID string, ids []string) (*BulkApproveResult, error) {
	ids = uniqueNonEmpty(ids)
	if len(ids) == 0 {
		return nil, domain.Validation("Invalid request", []domain.FieldError{{Field: "documentIds", Message: "at least one document id is required"}})
	}

	now := s.now()
	var approved []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		approved, err = repos.Documents.ApprovePending(ctx, ids, now)
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			return errNoPendingDocuments
		}
		return repos.Activity.Append(ctx, domain.AdminActivityLog{
			ID:         newID(),
			AdminID:    adminID,
			Action:     domain.ActionBulkApprove,
			TargetType: domain.TargetDocument,
			TargetID:   strings.Join(approved, ","),
			Details: map[string]any{
				"count":       len(approved),
				"documentIds": approved,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, internal("bulk approve", err)
	}

	s.metrics.DocumentReviewed(string(domain.VerificationApproved), len(approved))
	for _, id := range approved {
		doc, err := s.documents.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load approved document", zap.String("document_id", id), zap.Error(err))
			continue
		}
		s.publishReviewed(ctx, adminID, doc.ClientID, []string{id}, domain.VerificationApproved, nil, now)
	}

	s.logger.Info("documents bulk approved", zap.String("admin_id", adminID), zap.Int("count", len(approved)))
	return &BulkApproveResult{Count: len(approved), DocumentIDs: approved}, nil
}

// ApproveAllForClient approves every PENDING document of a client.
func (s *AdminService) ApproveAllForClient(ctx context.Context, adminID, clientID string) (*BulkApproveResult, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, "Client not found", "get client")
	}

	now := s.now()
	var approved []string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		approved, err = repos.Documents.ApprovePendingForClient(ctx, clientID, now)
		if err != nil {
			return err
		}
		if len(approved) == 0 {
			return errNoPendingDocuments
		}
		return repos.Activity.Append(ctx, domain.AdminActivityLog{
			ID:         newID(),
			AdminID:    adminID,
			Action:     domain.ActionApproveAllDocuments,
			TargetType: domain.TargetClient,
			TargetID:   clientID,
			Details: map[string]any{
				"count":       len(approved),
				"documentIds": approved,
				"clientEmail": client.Email,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, internal("approve client documents", err)
	}

	s.metrics.DocumentReviewed(string(domain.VerificationApproved), len(approved))
	s.publishReviewed(ctx, adminID, clientID, approved, domain.VerificationApproved, nil, now)
	return &BulkApproveResult{Count: len(approved), DocumentIDs: approved}, nil
}

// Stats counts clients, completed onboardings and documents by status. The counts run concurrently.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	var stats domain.AdminStats
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.TotalClients, func(ctx context.Context) (int, error) {
		return s.stats.CountClients(ctx, domain.RoleUser)
	})
	count(&stats.CompletedOnboarding, func(ctx context.Context) (int, error) {
		return s.stats.CountOnboarding(ctx, domain.OnboardingCompleted)
	})
	count(&stats.PendingDocuments, func(ctx context.Context) (int, error) {
		return s.stats.CountDocuments(ctx, domain.VerificationPending)
	})
	count(&stats.ApprovedDocuments, func(ctx context.Context) (int, error) {
		return s.stats.CountDocuments(ctx, domain.VerificationApproved)
	})
	count(&stats.RejectedDocuments, func(ctx context.Context) (int, error) {
		return s.stats.CountDocuments(ctx, domain.VerificationRejected)
	})
	count(&stats.TotalDocuments, func(ctx context.Context) (int, error) {
		return s.stats.CountDocuments(ctx, "")
	})

	if err := g.Wait(); err != nil {
		return nil, internal("load stats", err)
	}
	return &stats, nil
}

// ListActivity returns a page of the audit log, newest first.
func (s *AdminService) ListActivity(ctx context.Context, page, limit int) (*Page[domain.ActivityEntry], error) {
	page, limit, offset := pageWindow(page, limit)
	entries, total, err := s.activity.List(ctx, limit, offset)
	if err != nil {
		return nil, internal("list activity", err)
	}
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	return &Page[domain.ActivityEntry]{Items: entries, Total: total, Page: page, Limit: limit}, nil
}

// ListClients returns a page of non-admin clients matching the search.
func (s *AdminService) ListClients(ctx context.Context, q ClientQuery) (*Page[domain.ClientSummary], error) {
	page, limit, offset := pageWindow(q.Page, q.Limit)
	clients, total, err := s.clients.List(ctx, domain.ClientFilter{
		Search: strings.TrimSpace(q.Search),
		Role:   domain.RoleUser,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, internal("list clients", err)
	}
	if clients == nil {
		clients = []domain.ClientSummary{}
	}
	for i := range clients {
		clients[i].Client.PasswordHash = ""
	}
	return &Page[domain.ClientSummary]{Items: clients, Total: total, Page: page, Limit: limit}, nil
}

// GetClient returns a client with its onboarding progress and documents.
func (s *AdminService) GetClient(ctx context.Context, clientID string) (*ClientDetail, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, "Client not found", "get client")
	}
	client.PasswordHash = ""

	detail := &ClientDetail{Client: *client}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		progress, err := s.onboarding.GetProgress(gctx, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		detail.Onboarding = progress
		return nil
	})
	g.Go(func() error {
		docs, err := s.documents.List(gctx, domain.DocumentFilter{ClientID: clientID})
		if err != nil {
			return err
		}
		detail.Documents = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, internal("get client detail", err)
	}
	if detail.Documents == nil {
		detail.Documents = []domain.Document{}
	}
	return detail, nil
}

// ListDocuments returns a page of documents across clients with their owners.
func (s *AdminService) ListDocuments(ctx context.Context, q DocumentQuery) (*Page[domain.DocumentWithOwner], error) {
	var errs []domain.FieldError
	if q.Status != "" && !q.Status.Valid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "is not a known status"})
	}
	if q.Category != "" && !q.Category.Valid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "is not a known category"})
	}
	if len(errs) > 0 {
		return nil, domain.Validation("Invalid filter", errs)
	}

	page, limit, offset := pageWindow(q.Page, q.Limit)
	docs, total, err := s.documents.ListWithOwner(ctx, domain.DocumentFilter{
		Status:   q.Status,
		Category: q.Category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, internal("list documents", err)
	}
	if docs == nil {
		docs = []domain.DocumentWithOwner{}
	}
	return &Page[domain.DocumentWithOwner]{Items: docs, Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) publishReviewed(ctx context.Context, adminID, clientID string, ids []string, status domain.VerificationStatus, reason *string, at time.Time) {
	for _, id := range ids {
		if err := s.events.PublishDocumentReviewed(ctx, domain.DocumentReviewedEvent{
			EventID:    newID(),
			DocumentID: id,
			ClientID:   clientID,
			AdminID:    adminID,
			Status:     status,
			Reason:     reason,
			ReviewedAt: at,
		}); err != nil {
			s.logger.Warn("failed to publish document reviewed event", zap.String("document_id", id), zap.Error(err))
		}
	}
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
