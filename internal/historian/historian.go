// Package historian drains the action queue into the archive in batches.
package historian

import (
	"context"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/sirupsen/logrus"
)

// popTimeout bounds each blocking pop so shutdown and timed flushes are not starved.
const popTimeout = time.Second

// Source yields queued action records. *cache.Queue implements it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.ActionRecord, bool, error)
}

// Sink persists a batch of action records. database.Store implementations satisfy it.
type Sink interface {
	RecordActions(ctx context.Context, recs []cache.ActionRecord) error
}

// Service moves records from a Source to a Sink.
type Service struct {
	source     Source
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	log        logrus.FieldLogger

	batch []cache.ActionRecord
}

func New(source Source, sink Sink, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source:     source,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		log:        logger,
		batch:      make([]cache.ActionRecord, 0, batchSize),
	}
}

// Run pops records until ctx is cancelled, flushing whenever the batch is full or
// flushDelay has passed since the last flush. Pending records are flushed before it
// returns.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("historian started")
	lastFlush := time.Now()
	for ctx.Err() == nil {
		rec, ok, err := s.source.Pop(ctx, popTimeout)
		switch {
		case err != nil && ctx.Err() == nil:
			s.log.WithError(err).Error("pop failed")
			time.Sleep(popTimeout)
		case ok:
			s.batch = append(s.batch, rec)
		}

		if len(s.batch) >= s.batchSize || time.Since(lastFlush) >= s.flushDelay {
			s.flush(ctx)
			lastFlush = time.Now()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(shutdownCtx)
	s.log.Info("historian stopped")
}

// flush writes the current batch. A failed batch is kept and retried on the next flush.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.RecordActions(ctx, s.batch); err != nil {
		s.log.WithError(err).WithField("records", len(s.batch)).Error("flush failed")
		return
	}
	s.log.WithField("records", len(s.batch)).Debug("flushed actions")
	s.batch = s.batch[:0]
}
