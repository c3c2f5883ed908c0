package processor

import (
	"context"
	"errors"
	"sync"

	"backoffice-server/internal/monitoring"
	"backoffice-server/internal/observability"
	"backoffice-server/internal/progress"
	"backoffice-server/internal/workers/emailer"

	"github.com/google/uuid"
)

// maxConsecutiveStoreFailures aborts a bulk job when the datastore looks
// gone entirely. Isolated per-item failures only feed the failed counter.
const maxConsecutiveStoreFailures = 5

// StartBulkActivation registers a progress session and launches the bulk job
// in a detached goroutine. The returned snapshot carries the session id the
// client polls or streams against.
func (p *ActivationProcessor) StartBulkActivation(ctx context.Context, leadIDs []uuid.UUID) (progress.Snapshot, error) {
	if len(leadIDs) == 0 {
		return progress.Snapshot{}, ErrEmptyBatch
	}

	sessionID := "bulk-" + uuid.NewString()
	snap, err := p.progress.Create(ctx, sessionID, len(leadIDs))
	if err != nil {
		p.logger.Error(ctx, "failed to create bulk activation session", err)
		return progress.Snapshot{}, err
	}

	// The job outlives the HTTP request; it runs on a fresh context and is
	// not cancellable once started.
	jobCtx := observability.WithFields(context.Background(),
		observability.Field{Key: "session_id", Value: sessionID},
		observability.Field{Key: "batch_size", Value: len(leadIDs)},
	)
	go p.runBulkActivation(jobCtx, sessionID, leadIDs)

	return snap, nil
}

func (p *ActivationProcessor) runBulkActivation(ctx context.Context, sessionID string, leadIDs []uuid.UUID) {
	monitoring.BulkSessionsActive.Inc()
	defer monitoring.BulkSessionsActive.Dec()

	p.logger.Info(ctx, "bulk activation started")

	var emailWG sync.WaitGroup
	consecutiveFailures := 0

	for _, leadID := range leadIDs {
		result, err := p.ActivateLead(ctx, leadID)
		switch {
		case err == nil:
			consecutiveFailures = 0
			p.queueWelcomeEmail(ctx, sessionID, result, &emailWG)
			p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.Activated++ })

		case errors.Is(err, ErrLeadAlreadyActivated):
			consecutiveFailures = 0
			monitoring.LeadsActivatedTotal.WithLabelValues("skipped").Inc()
			p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.Skipped++ })

		case errors.Is(err, ErrLeadNotFound), errors.Is(err, ErrInvalidLead):
			consecutiveFailures = 0
			monitoring.LeadsActivatedTotal.WithLabelValues("failed").Inc()
			p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.Failed++ })

		default:
			consecutiveFailures++
			monitoring.LeadsActivatedTotal.WithLabelValues("failed").Inc()
			p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.Failed++ })

			if consecutiveFailures >= maxConsecutiveStoreFailures {
				p.logger.Error(ctx, "aborting bulk activation, datastore unavailable", err)
				p.updateSession(ctx, sessionID, func(s *progress.Snapshot) {
					s.Type = progress.TypeError
					s.Msg = "activation aborted: datastore unavailable"
				})
				monitoring.BulkSessionsTotal.WithLabelValues("error").Inc()
				return
			}
		}
	}

	// Completion waits for this batch's welcome emails so the terminal
	// snapshot carries final email counters.
	emailWG.Wait()
	p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.Completed = true })
	monitoring.BulkSessionsTotal.WithLabelValues("complete").Inc()
	p.logger.Info(ctx, "bulk activation completed")
}

func (p *ActivationProcessor) queueWelcomeEmail(ctx context.Context, sessionID string, result ActivationResult, wg *sync.WaitGroup) {
	wg.Add(1)
	p.updateSession(ctx, sessionID, func(s *progress.Snapshot) { s.EmailsPending++ })

	firstName := ""
	if result.User.FirstName != nil {
		firstName = *result.User.FirstName
	}

	p.emailQueue.Enqueue(ctx, emailer.Job{
		SessionID:    sessionID,
		Email:        result.User.Email,
		FirstName:    firstName,
		ReferralLink: result.ReferralLink,
		Done: func(sent bool) {
			defer wg.Done()
			p.updateSession(ctx, sessionID, func(s *progress.Snapshot) {
				s.EmailsPending--
				if sent {
					s.EmailsSent++
				} else {
					s.EmailsFailed++
				}
			})
		},
	})
}

func (p *ActivationProcessor) updateSession(ctx context.Context, sessionID string, mutate func(*progress.Snapshot)) {
	if _, err := p.progress.Update(ctx, sessionID, mutate); err != nil {
		p.logger.Error(ctx, "failed to update progress session", err)
	}
}

// GetSession returns the current progress snapshot for a bulk job.
func (p *ActivationProcessor) GetSession(ctx context.Context, sessionID string) (progress.Snapshot, error) {
	return p.progress.Get(ctx, sessionID)
}

// SubscribeSession opens an observer channel on a bulk job's progress.
func (p *ActivationProcessor) SubscribeSession(ctx context.Context, sessionID string) (<-chan progress.Snapshot, func(), error) {
	return p.progress.Subscribe(ctx, sessionID)
}
