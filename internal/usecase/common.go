// Package usecase implements the application services behind the HTTP API.
package usecase

import (
	"errors"
	"strings"

	uuid "github.com/google/uuid"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

func newID() string {
	return uuid.NewString()
}

// notFoundOr maps repository.ErrNotFound onto a NotFound error with message and
// anything else onto Internal.
func notFoundOr(err error, message, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(message)
	}
	return internal(op, err)
}

// internal wraps err unless it already carries a domain kind.
func internal(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Internal(op, err)
}

func stringPtr(s string) *string {
	return &s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// TotalPages is the number of pages needed to show Total items.
func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageWindow normalizes a 1-based page and a limit into limit and offset.
func pageWindow(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

// OnboardingMetrics receives onboarding progress signals.
type OnboardingMetrics interface {
	StepCompleted(step string, finished bool)
}

// DocumentMetrics receives document lifecycle signals.
type DocumentMetrics interface {
	DocumentUploaded(category string)
	DocumentReviewed(status string, n int)
}

type nopMetrics struct{}

func (nopMetrics) StepCompleted(string, bool)   {}
func (nopMetrics) DocumentUploaded(string)      {}
func (nopMetrics) DocumentReviewed(string, int) {}
