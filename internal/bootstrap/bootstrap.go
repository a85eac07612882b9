// Package bootstrap assembles repositories, services and the HTTP application from their
// infrastructure clients. It is shared by the API server, the operator CLI and end to end tests.
package bootstrap

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/config"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/router"
	"github.com/noah-isme/gradebook-api/internal/service"
)

// Options carries the infrastructure the services run on. Redis and NATS are optional.
type Options struct {
	Config config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	NATS   *nats.Conn
	Logger zerolog.Logger
}

// Services is the assembled service layer.
type Services struct {
	Users          repository.UserRepository
	Activity       service.ActivityService
	Notifications  service.NotificationService
	Configs        service.ActivityConfigService
	Grades         service.GradeService
	Summaries      service.SummaryService
	ChangeRequests service.ChangeRequestService
	Seed           service.SeedService
}

// NewServices wires repositories into services.
func NewServices(opts Options) Services {
	db := opts.DB
	logger := opts.Logger
	rules := opts.Config.Grading.WithDefaults()

	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	subjects := repository.NewSubjectRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	configRepo := repository.NewActivityConfigRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)

	validate := service.NewValidator()
	policy := service.NewRolePolicy()
	cache := service.NewSummaryCache(opts.Redis, opts.Config.SummaryCacheTTL, logger)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), opts.Config.NATSChannelBase, opts.NATS, logger)

	configs := service.NewActivityConfigService(tx, subjects, configRepo, validate, policy, activity, cache, rules, logger)
	grades := service.NewGradeService(service.GradeServiceDeps{
		Transactor:  tx,
		Users:       users,
		Subjects:    subjects,
		Enrollments: enrollments,
		Configs:     configRepo,
		Grades:      gradeRepo,
		Validator:   validate,
		Policy:      policy,
		Activity:    activity,
		Cache:       cache,
		Rules:       rules,
	}, logger)
	summaries := service.NewSummaryService(service.SummaryServiceDeps{
		Transactor:  tx,
		Users:       users,
		Subjects:    subjects,
		Enrollments: enrollments,
		Configs:     configRepo,
		Grades:      gradeRepo,
		Policy:      policy,
		Cache:       cache,
		Rules:       rules,
	}, logger)
	changeRequests := service.NewChangeRequestService(service.ChangeRequestServiceDeps{
		Transactor: tx,
		Users:      users,
		Subjects:   subjects,
		Configs:    configRepo,
		Grades:     gradeRepo,
		Requests:   requestRepo,
		Validator:  validate,
		Policy:     policy,
		Activity:   activity,
		Cache:      cache,
		Notifier:   notifications,
		Rules:      rules,
	}, logger)

	return Services{
		Users:          users,
		Activity:       activity,
		Notifications:  notifications,
		Configs:        configs,
		Grades:         grades,
		Summaries:      summaries,
		ChangeRequests: changeRequests,
		Seed:           service.NewSeedService(tx, users, subjects, configs, grades, changeRequests, logger),
	}
}

// NewHTTP builds the fiber application serving services.
func NewHTTP(opts Options, services Services) *fiber.App {
	cfg := opts.Config
	logger := opts.Logger

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, APIPrefix: router.APIPrefix})
	router.Register(app, cfg, router.Dependencies{
		DB:                    opts.DB,
		ActivityConfigHandler: handler.NewActivityConfigHandler(services.Configs, logger),
		GradeHandler:          handler.NewGradeHandler(services.Grades, logger),
		SummaryHandler:        handler.NewSummaryHandler(services.Summaries, logger),
		ChangeRequestHandler:  handler.NewChangeRequestHandler(services.ChangeRequests, logger),
		NotificationHandler:   handler.NewNotificationHandler(services.Notifications, logger),
		AdminActivityHandler:  handler.NewAdminActivityHandler(services.Activity, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		WriteLimiter:          middleware.RateLimit("writes", cfg.WriteRateLimit, cfg.WriteRateWindow),
	})

	return app
}
