package usecase

import (
	"context"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

const maxFileNameLength = 255

// DocumentSettings bounds what clients may upload.
type DocumentSettings struct {
	MaxFileSize  int64
	AllowedTypes []string
}

// NewDocumentInput is the metadata of a file already placed in object storage.
type NewDocumentInput struct {
	FileName string
	FileURL  string
	FileKey  string
	FileType string
	FileSize int64
	Category domain.DocumentCategory
}

// UploadRequest describes a file the client is about to upload.
type UploadRequest struct {
	FileName string
	FileType string
	FileSize int64
	Category domain.DocumentCategory
}

// DocumentService manages a client's own documents.
type DocumentService struct {
	documents port.DocumentRepository
	storage   port.ObjectStorage
	events    port.EventPublisher
	metrics   DocumentMetrics
	settings  DocumentSettings
	allowed   map[string]struct{}
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(
	documents port.DocumentRepository,
	storage port.ObjectStorage,
	events port.EventPublisher,
	settings DocumentSettings,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MaxFileSize <= 0 {
		settings.MaxFileSize = 10 << 20
	}
	allowed := make(map[string]struct{}, len(settings.AllowedTypes))
	for _, t := range settings.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &DocumentService{
		documents: documents,
		storage:   storage,
		events:    events,
		metrics:   nopMetrics{},
		settings:  settings,
		allowed:   allowed,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *DocumentService) WithClock(clock func() time.Time) *DocumentService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithMetrics attaches a metrics sink.
func (s *DocumentService) WithMetrics(m DocumentMetrics) *DocumentService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// AddDocument registers an uploaded file as a PENDING document.
func (s *DocumentService) AddDocument(ctx context.Context, clientID string, in NewDocumentInput) (*domain.Document, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.FileURL = strings.TrimSpace(in.FileURL)
	in.FileKey = strings.TrimSpace(in.FileKey)
	in.FileType = strings.ToLower(strings.TrimSpace(in.FileType))

	var errs []domain.FieldError
	if in.FileName == "" {
		errs = append(errs, domain.FieldError{Field: "fileName", Message: "is required"})
	}
	if in.FileURL == "" {
		errs = append(errs, domain.FieldError{Field: "fileUrl", Message: "is required"})
	}
	if in.FileKey == "" {
		errs = append(errs, domain.FieldError{Field: "fileKey", Message: "is required"})
	}
	errs = append(errs, s.checkFile(in.FileType, in.FileSize, in.Category)...)
	if len(errs) > 0 {
		return nil, domain.Validation("Invalid document", errs)
	}

	doc := domain.Document{
		ID:                 newID(),
		ClientID:           clientID,
		FileName:           in.FileName,
		FileURL:            in.FileURL,
		FileKey:            in.FileKey,
		FileType:           in.FileType,
		FileSize:           in.FileSize,
		Category:           in.Category,
		VerificationStatus: domain.VerificationPending,
		UploadedAt:         s.now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, internal("create document", err)
	}

	s.metrics.DocumentUploaded(string(doc.Category))
	if err := s.events.PublishDocumentUploaded(ctx, domain.DocumentUploadedEvent{
		EventID:    newID(),
		DocumentID: doc.ID,
		ClientID:   clientID,
		Category:   doc.Category,
		FileType:   doc.FileType,
		FileSize:   doc.FileSize,
		UploadedAt: doc.UploadedAt,
	}); err != nil {
		s.logger.Warn("failed to publish document uploaded event", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return &doc, nil
}

// ListDocuments returns the client's documents, newest first, optionally narrowed to one category.
func (s *DocumentService) ListDocuments(ctx context.Context, clientID string, category domain.DocumentCategory) ([]domain.Document, error) {
	if category != "" && !category.Valid() {
		return nil, domain.Validation("Invalid category", []domain.FieldError{{Field: "category", Message: "is not a known category"}})
	}
	docs, err := s.documents.List(ctx, domain.DocumentFilter{ClientID: clientID, Category: category})
	if err != nil {
		return nil, internal("list documents", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// DeleteDocument removes one of the client's documents and then its stored file.
// A failed file delete is logged, not returned.
func (s *DocumentService) DeleteDocument(ctx context.Context, clientID, documentID string) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return notFoundOr(err, "Document not found", "get document")
	}
	if doc.ClientID != clientID {
		return domain.NotFound("Document not found")
	}

	if err := s.documents.DeleteOwned(ctx, documentID, clientID); err != nil {
		return notFoundOr(err, "Document not found", "delete document")
	}

	if doc.FileKey != "" {
		if err := s.storage.Delete(ctx, doc.FileKey); err != nil {
			s.logger.Warn("failed to delete stored object",
				zap.String("document_id", documentID),
				zap.String("key", doc.FileKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CreateUploadURL returns a presigned PUT target for a new file under the client's prefix.
func (s *DocumentService) CreateUploadURL(ctx context.Context, clientID string, req UploadRequest) (*domain.UploadTicket, error) {
	req.FileType = strings.ToLower(strings.TrimSpace(req.FileType))
	name := sanitizeFileName(req.FileName)

	var errs []domain.FieldError
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "fileName", Message: "is required"})
	}
	errs = append(errs, s.checkFile(req.FileType, req.FileSize, req.Category)...)
	if len(errs) > 0 {
		return nil, domain.Validation("Invalid upload request", errs)
	}

	key := path.Join("clients", clientID, ulid.Make().String()+"-"+name)
	upload, err := s.storage.PresignPut(ctx, key, req.FileType, req.FileSize)
	if err != nil {
		return nil, internal("presign upload", err)
	}

	return &domain.UploadTicket{
		UploadURL: upload.URL,
		FileKey:   key,
		FileURL:   s.storage.PublicURL(key),
		ExpiresAt: upload.ExpiresAt,
		Headers:   upload.Headers,
	}, nil
}

func (s *DocumentService) checkFile(fileType string, size int64, category domain.DocumentCategory) []domain.FieldError {
	var errs []domain.FieldError
	if _, ok := s.allowed[fileType]; !ok {
		errs = append(errs, domain.FieldError{Field: "fileType", Message: "file type is not allowed"})
	}
	if size <= 0 || size > s.settings.MaxFileSize {
		errs = append(errs, domain.FieldError{Field: "fileSize", Message: "file size is out of range"})
	}
	if !category.Valid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "is not a known category"})
	}
	return errs
}

// sanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-] with '_'.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if len(name) > maxFileNameLength {
		name = name[len(name)-maxFileNameLength:]
	}
	return name
}
