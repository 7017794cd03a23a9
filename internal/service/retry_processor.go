package service

import (
	"context"
	"errors"
	"time"

	"github.com/newsroom-publishing-api/internal/models"
)

// StartRetryProcessor runs the background publish retry loop: drafts that
// sat in "approved" past the grace period get their publish phase re-run.
// Approval authorization already happened; the processor only finishes the
// publish phase, never changes review outcomes.
func (s *reviewService) StartRetryProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.procCtx, s.procCancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().Dur("interval", s.cfg.RetryInterval).Msg("Publish retry processor started")

	ticker := time.NewTicker(s.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.procCtx.Done():
			s.log.Info().Msg("Publish retry processor stopping")
			return
		case <-ticker.C:
			s.retryStuckDrafts()
		}
	}
}

// StopRetryProcessor stops the retry loop and waits for in-flight retries
func (s *reviewService) StopRetryProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.procCancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Publish retry processor stopped")
}

// retryStuckDrafts re-runs the publish phase for each stuck draft, bounded
// by the worker semaphore
func (s *reviewService) retryStuckDrafts() {
	drafts, err := s.drafts.ListStuckApproved(s.procCtx, s.cfg.RetryAfter)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list stuck approved drafts")
		return
	}

	for _, draft := range drafts {
		select {
		case s.sem <- struct{}{}:
		case <-s.procCtx.Done():
			return
		}

		s.wg.Add(1)
		go func(d *models.Draft) {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Str("draft_id", d.ID).
						Msg("Publish retry panicked - recovered")
				}
			}()

			if err := s.publishLocked(s.procCtx, d); err != nil {
				// ErrConflict means another caller finished this draft
				// between the listing and our attempt; that is the CAS
				// doing its job.
				if errors.Is(err, models.ErrConflict) {
					return
				}
				s.log.Warn().Err(err).Str("draft_id", d.ID).Msg("Publish retry failed, will retry later")
			}
		}(draft)
	}
}
