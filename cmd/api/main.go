package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kelaskita/kelaskita-api/internal/config"
	"github.com/kelaskita/kelaskita-api/internal/database"
	"github.com/kelaskita/kelaskita-api/internal/handler"
	"github.com/kelaskita/kelaskita-api/internal/middleware"
	"github.com/kelaskita/kelaskita-api/internal/repository"
	"github.com/kelaskita/kelaskita-api/internal/router"
	"github.com/kelaskita/kelaskita-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, rubricRepo, activityRepo, validate, logger)
	detailService := service.NewAssignmentDetailService(
		assignmentRepo,
		activityRepo,
		rubricRepo,
		teacherRepo,
		submissionRepo,
		evaluationRepo,
		redisClient,
		cfg.DetailCacheTTL,
		logger,
	)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		validate,
		natsConn,
		cfg.SubmissionEventsSubject,
		redisClient,
		logger,
	)
	evaluationService := service.NewEvaluationService(evaluationRepo, submissionRepo, validate, redisClient, logger)
	rubricService := service.NewRubricService(rubricRepo, validate, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, detailService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	rubricHandler := handler.NewRubricHandler(rubricService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		EvaluationHandler: evaluationHandler,
		RubricHandler:     rubricHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
