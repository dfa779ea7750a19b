package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// ErrNotConfigured is returned for uploads when no bucket is configured.
var ErrNotConfigured = errors.New("object storage is not configured")

// Disabled stands in for object storage in environments without a bucket.
// Clients can still register documents uploaded elsewhere.
type Disabled struct {
	logger *zap.Logger
}

// NewDisabled returns a storage that refuses uploads and logs deletes.
func NewDisabled(logger *zap.Logger) *Disabled {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Disabled{logger: logger}
}

func (d *Disabled) PresignPut(context.Context, string, string, int64) (port.PresignedUpload, error) {
	return port.PresignedUpload{}, ErrNotConfigured
}

func (d *Disabled) Delete(_ context.Context, key string) error {
	d.logger.Info("storage disabled, skipping object delete", zap.String("key", key))
	return nil
}

func (d *Disabled) PublicURL(key string) string {
	return key
}

var _ port.ObjectStorage = (*Disabled)(nil)
