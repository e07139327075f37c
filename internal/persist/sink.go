package persist

import (
	"context"

	"go.uber.org/zap"

	"novelbind/internal/book"
)

// Sink fans one chapter out to both durable write paths. Each path may fail
// independently; failures are logged, never raised, so a broken disk or an
// unreachable store cannot abort the batch.
type Sink struct {
	files  *Files
	store  *Store
	logger *zap.Logger
}

// NewSink composes the file and store write paths. A nil store degrades that
// path to a logged no-op while the file path stays functional.
func NewSink(files *Files, store *Store, logger *zap.Logger) *Sink {
	return &Sink{files: files, store: store, logger: logger}
}

// Persist records the chapter on every available write path.
func (s *Sink) Persist(ctx context.Context, ch book.Chapter) {
	if err := s.files.Save(ctx, ch); err != nil {
		s.logger.Warn("file write failed",
			zap.Int("chapter", ch.Number),
			zap.Error(err),
		)
	}

	if !s.store.Available() {
		s.logger.Debug("store unavailable; skipping upsert", zap.Int("chapter", ch.Number))
		return
	}
	if err := s.store.Upsert(ctx, ch); err != nil {
		s.logger.Warn("store upsert failed",
			zap.Int("chapter", ch.Number),
			zap.Error(err),
		)
	}
}
