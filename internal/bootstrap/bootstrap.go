package bootstrap

import (
	"context"
	"fmt"
	"time"

	"backoffice-server/internal/config"
	"backoffice-server/internal/observability"
	"backoffice-server/internal/progress"
	"backoffice-server/internal/store"

	activationHandler "backoffice-server/internal/activation/handler"
	activationProcessor "backoffice-server/internal/activation/processor"
	authHandler "backoffice-server/internal/auth/handler"
	authProcessor "backoffice-server/internal/auth/processor"
	"backoffice-server/internal/clients/mail"
	redisClient "backoffice-server/internal/clients/redis"
	commissionHandler "backoffice-server/internal/commission/handler"
	commissionProcessor "backoffice-server/internal/commission/processor"
	"backoffice-server/internal/email"
	referralHandler "backoffice-server/internal/referral/handler"
	referralProcessor "backoffice-server/internal/referral/processor"
	"backoffice-server/internal/workers/emailer"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	AuthHandler       authHandler.Handler
	ReferralHandler   referralHandler.Handler
	CommissionHandler commissionHandler.Handler
	ActivationHandler activationHandler.Handler

	// Background workers
	EmailPool *emailer.Pool

	// Progress session backend (closed on shutdown)
	ProgressStore progress.Store
	Redis         *redisClient.Client
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	var err error
	deps.Store, err = store.New(cfg.Database.ConnectionString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize mail client and email service
	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}
	emailService := email.New(mailClient, cfg.Services.DefaultEmailSender, logger)

	// Progress session store: Redis when configured, otherwise in-memory.
	// In-memory sessions are per instance; multi-instance deployments need
	// Redis so pollers can hit any replica.
	deps.Redis, err = redisClient.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if deps.Redis.IsEnabled() {
		deps.ProgressStore = progress.NewRedisStore(deps.Redis.GetClient(), cfg.Referral.SessionRetention, logger)
	} else {
		deps.ProgressStore = progress.NewMemoryStore(cfg.Referral.SessionRetention, logger)
	}

	// Initialize auth processor and handler
	authProc := authProcessor.New(cfg.Auth.JWTSecret, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	// Initialize referral processor and handler
	codeGen, err := referralProcessor.NewCodeGenerator(&deps.Store, cfg.Referral.CodeLength, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral code generator: %w", err)
	}
	referralProc := referralProcessor.New(&deps.Store, codeGen, cfg.Services.WebAppURI, logger)
	deps.ReferralHandler = referralHandler.New(referralProc, logger)

	// Initialize commission processor and handler
	commissionProc := commissionProcessor.New(&deps.Store, cfg.Referral.CommissionAmount, emailService, logger)
	deps.CommissionHandler = commissionHandler.New(commissionProc, logger)

	// Initialize welcome email worker pool
	deps.EmailPool = emailer.NewPool(emailService, cfg.WorkerPool.EmailWorkers, logger)

	// Initialize activation processor and handler
	activationProc := activationProcessor.New(
		&deps.Store,
		&referralProc,
		&commissionProc,
		deps.ProgressStore,
		deps.EmailPool,
		logger,
	)
	deps.ActivationHandler = activationHandler.New(activationProc, logger)

	return deps, nil
}

// Cleanup closes all resources that need cleanup
func (d *Dependencies) Cleanup() {
	if d.EmailPool != nil {
		d.EmailPool.Stop(30 * time.Second)
	}
	if closer, ok := d.ProgressStore.(interface{ Close() }); ok {
		closer.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error(context.Background(), "failed to close redis client", err)
		}
	}
}
