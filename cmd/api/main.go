package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleAssignmentRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	onboardingRepo := repository.NewOnboardingRequestRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	responseRepo := repository.NewTicketResponseRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	buffer := audit.NewRedisBuffer(redis.Client, cfg.Audit.BufferKey)
	recorder := audit.NewRecorder(buffer, activityRepo, logger, cfg.Audit.FlushThreshold)

	authorizer := authz.NewAuthorizer()
	dispatcher := events.NewInMemoryDispatcher()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		CompanyRepo:  companyRepo,
		RoleRepo:     roleRepo,
		Authorizer:   authorizer,
		Dispatcher:   dispatcher,
		Recorder:     recorder,
	})
	responseService := service.NewResponseService(service.ResponseDependencies{
		TicketRepo:     ticketRepo,
		ResponseRepo:   responseRepo,
		AttachmentRepo: attachmentRepo,
		Authorizer:     authorizer,
		Dispatcher:     dispatcher,
		Recorder:       recorder,
	})
	ratingService := service.NewRatingService(service.RatingDependencies{
		TicketRepo: ticketRepo,
		RatingRepo: ratingRepo,
		Dispatcher: dispatcher,
		Recorder:   recorder,
	})
	onboardingService := service.NewOnboardingService(service.OnboardingDependencies{
		RequestRepo: onboardingRepo,
		CompanyRepo: companyRepo,
		UserRepo:    userRepo,
		RoleRepo:    roleRepo,
		Authorizer:  authorizer,
		Dispatcher:  dispatcher,
		Recorder:    recorder,
	})
	roleService := service.NewRoleService(service.RoleDependencies{
		RoleRepo:    roleRepo,
		UserRepo:    userRepo,
		CompanyRepo: companyRepo,
		Authorizer:  authorizer,
		Recorder:    recorder,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:        userRepo,
		RoleRepo:        roleRepo,
		ResetRepo:       resetRepo,
		Tokens:          tokens,
		Recorder:        recorder,
		BcryptCost:      cfg.Auth.BcryptCost,
		ResetTTLMinutes: cfg.Auth.PasswordResetTTLMinutes,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	scheduler := worker.NewScheduler(cfg.Scheduler, cfg.Audit.RetentionDays, recorder, ticketService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	authMiddleware := auth.NewMiddleware(tokens, userRepo, roleRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Responses:      handlers.NewResponsesHandler(responseService),
		Ratings:        handlers.NewRatingsHandler(ratingService),
		Companies:      handlers.NewCompaniesHandler(onboardingService),
		Roles:          handlers.NewRolesHandler(roleService),
		Activity:       handlers.NewActivityHandler(recorder, authorizer),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	recorder.Flush(context.Background())
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
