package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"backend-skillpath/internal/attendance"
	"backend-skillpath/internal/auth"
	"backend-skillpath/internal/config"
	"backend-skillpath/internal/events"
	"backend-skillpath/internal/location"
	"backend-skillpath/internal/observability"
	"backend-skillpath/internal/portalapi"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/session"
	"backend-skillpath/internal/shared/httperr"
	"backend-skillpath/internal/skills"
	"backend-skillpath/internal/store"
	"backend-skillpath/internal/stream"
	"backend-skillpath/internal/student"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Stream    *stream.Hub
	Source    records.Source
	Publisher events.Publisher

	producer *events.KafkaProducer
}

type Option func(*Server)

// WithSource overrides the source picked from SOURCE_MODE.
func WithSource(src records.Source) Option {
	return func(s *Server) {
		s.Source = src
	}
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, opts ...Option) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Use(recover.New())
	app.Use(logger.New())
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Source == nil {
		s.Source = newSource(cfg, db)
	}

	publishers := events.Fanout{s.Stream}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		s.producer = events.NewKafkaProducer(cfg.KafkaBrokers)
		publishers = append(publishers, events.NewKafkaPublisher(s.producer, cfg.KafkaTopic))
	}
	s.Publisher = publishers

	registerRoutes(s)
	return s
}

func newSource(cfg config.Config, db *pgxpool.Pool) records.Source {
	defaults := skills.Defaults{
		RequiredActivities: cfg.DefaultRequiredActivities,
		PassingScore:       cfg.DefaultPassingScore,
	}
	if cfg.SourceMode == config.SourcePostgres {
		if db != nil {
			return store.New(db, store.WithSkillDefaults(defaults))
		}
		log.Printf("SOURCE_MODE=%s without a database, falling back to the portal api", cfg.SourceMode)
	}
	return portalapi.New(cfg.PortalAPIURL, cfg.PortalAPITimeout,
		portalapi.WithLocation(cfg.Location()),
		portalapi.WithSkillDefaults(defaults),
		portalapi.WithSkipHook(func(source string) {
			observability.ObserveSkip("decode_" + source)
		}),
	)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "source": s.Cfg.SourceMode})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	var sessions auth.SessionStore
	var guard attendance.Guard = attendance.NewMemoryGuard()
	if s.Redis != nil {
		sessions = session.NewStore(s.Redis, s.Cfg.SessionTTL)
		guard = attendance.NewRedisGuard(s.Redis, s.Cfg.ConfirmGuardTTL)
	}
	authSvc := auth.NewService(s.Cfg.JWTSecret, sessions)
	jwtMiddleware := auth.JWTMiddleware(authSvc)

	confirmer := attendance.NewConfirmer(s.Source,
		attendance.WithGuard(guard),
		attendance.WithPublisher(s.Publisher),
		attendance.WithDefaultRadius(s.Cfg.DefaultGeofenceRadiusM),
		attendance.WithLocateTimeout(s.Cfg.ConfirmLocateTimeout),
		attendance.WithObserver(func(outcome string, distance float64) {
			observability.ObserveConfirm(outcome)
			if distance >= 0 {
				observability.ConfirmDistance.Observe(distance)
			}
		}),
	)
	studentSvc := student.NewService(s.Source,
		student.WithConfirmer(confirmer),
		student.WithPublisher(s.Publisher),
		student.WithAggregator(skills.NewAggregator(skills.WithSkipHook(observability.ObserveSkip))),
		student.WithLocation(s.Cfg.Location()),
		student.WithAcademicYear(s.Cfg.AcademicYearBE),
		student.WithSkipHook(observability.ObserveSkip),
		student.WithActionObserver(observability.ObserveAction),
		student.WithQuizObserver(observability.ObserveQuiz),
	)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	student.RegisterRoutes(s.App.Group("/students"), studentSvc, jwtMiddleware)
	if s.DB != nil {
		location.RegisterRoutes(s.App.Group("/locations"), location.NewService(s.DB, s.Cfg.DefaultGeofenceRadiusM), jwtMiddleware)
	}
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware, auth.RequireStudent("studentId"))
}

// Close releases the stream subscription and the kafka writers.
func (s *Server) Close() error {
	s.Stream.Close()
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
