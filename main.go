package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hieuntrw/hlr-sub001/config"
	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/handlers"
	"github.com/hieuntrw/hlr-sub001/logger"
	"github.com/hieuntrw/hlr-sub001/middleware"
	"github.com/hieuntrw/hlr-sub001/models"
	"github.com/hieuntrw/hlr-sub001/services"
	"github.com/hieuntrw/hlr-sub001/utils"
	"github.com/hieuntrw/hlr-sub001/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		logger.Init("hlr-rewards", "info", true)
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init("hlr-rewards", cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.DBAutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Without Redis, locks only hold within this process.
	var locker engine.Locker = engine.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb, err := services.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb, cfg.LockTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis locks")
	}

	var uploader services.Uploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2, cfg.CDNBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		uploader = r2
	} else {
		logger.Warn().Msg("R2 not configured, batch reports are kept in the database only")
	}

	store := services.NewGormStore(db)
	reportService := services.NewReportService(store, uploader)
	challengeService := services.NewChallengeService(store, locker, reportService)
	raceRewardService := services.NewRaceRewardService(store, locker, reportService)
	settingsService := services.NewSettingsService(store)

	if cfg.RecalcInterval > 0 {
		worker := workers.NewChallengeRecalcWorker(store, challengeService, cfg.RecalcTimeout)
		sched, err := worker.Start(ctx, cfg.RecalcInterval)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start recalc scheduler")
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Warn().Err(err).Msg("scheduler shutdown")
			}
		}()
		logger.Info().Dur("interval", cfg.RecalcInterval).Msg("challenge recalc scheduled")
	}

	app := newApp(cfg)
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupRaceRoutes(app, raceRewardService, reportService)
	handlers.SetupSettingsRoutes(app, settingsService)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()
	logger.Info().Str("addr", cfg.HTTPAddr).Msg("server running")

	<-ctx.Done()
	logger.Info().Msg("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn().Err(err).Msg("server shutdown")
	}
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "hlr-rewards",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles",
		MaxAge:       86400,
	}))

	return app
}
