// Package emailer runs the welcome-email worker pool. Activation jobs queue
// email work here so slow mail delivery never stalls lead processing; the
// bulk runner finalizes its session only after its jobs drain.
package emailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backoffice-server/internal/monitoring"
	"backoffice-server/internal/observability"
)

// WelcomeSender is the slice of the email service the pool needs.
type WelcomeSender interface {
	SendActivationWelcomeEmail(ctx context.Context, to, firstName, referralLink string) error
}

// Job is one welcome email to deliver. Done, when set, is invoked exactly
// once with the delivery outcome after the attempt finishes.
type Job struct {
	SessionID    string
	Email        string
	FirstName    string
	ReferralLink string
	Done         func(sent bool)
}

// Pool is a fixed-size worker pool draining welcome-email jobs.
type Pool struct {
	sender    WelcomeSender
	logger    *observability.Logger
	jobChan   chan Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
	stopped   bool
	cancelFn  context.CancelFunc
	numWorker int
}

const defaultQueueSize = 256

// NewPool creates an email worker pool with numWorkers workers.
func NewPool(sender WelcomeSender, numWorkers int, logger *observability.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 5
	}
	return &Pool{
		sender:    sender,
		logger:    logger,
		jobChan:   make(chan Job, defaultQueueSize),
		numWorker: numWorkers,
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("emailer pool already started")
	}
	if p.stopped {
		return fmt.Errorf("emailer pool already stopped")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.started = true

	for i := 0; i < p.numWorker; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	p.logger.Info(ctx, fmt.Sprintf("Started %d email workers", p.numWorker))
	return nil
}

// Enqueue adds a job to the queue, blocking when it is full. A job enqueued
// after Stop is reported as failed through Done rather than delivered; the
// read lock is held across the send so Stop cannot close the channel out
// from under an in-flight producer.
func (p *Pool) Enqueue(ctx context.Context, job Job) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn(ctx, "email enqueue after pool stop",
			observability.Field{Key: "session_id", Value: job.SessionID},
		)
		if job.Done != nil {
			job.Done(false)
		}
		return
	}

	select {
	case p.jobChan <- job:
	case <-ctx.Done():
		// Caller gave up; count the email as failed so sessions still drain.
		p.logger.Warn(ctx, "email enqueue cancelled",
			observability.Field{Key: "session_id", Value: job.SessionID},
		)
		if job.Done != nil {
			job.Done(false)
		}
	}
}

// Stop drains in-flight jobs and shuts the workers down.
func (p *Pool) Stop(timeout time.Duration) {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobChan)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		p.cancelFn()
	}
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	workerCtx := observability.WithFields(ctx, observability.Field{Key: "email_worker_id", Value: workerID})
	for job := range p.jobChan {
		p.process(workerCtx, job)
	}
}

func (p *Pool) process(ctx context.Context, job Job) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "session_id", Value: job.SessionID},
		observability.Field{Key: "recipient", Value: job.Email},
	)

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err := p.sender.SendActivationWelcomeEmail(sendCtx, job.Email, job.FirstName, job.ReferralLink)
	if err != nil {
		monitoring.EmailsSentTotal.WithLabelValues("failed").Inc()
		p.logger.Error(ctx, "failed to send welcome email", err)
	} else {
		monitoring.EmailsSentTotal.WithLabelValues("sent").Inc()
	}

	if job.Done != nil {
		job.Done(err == nil)
	}
}
