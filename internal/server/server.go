package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dutyroster/apiserver/config"
	"github.com/dutyroster/apiserver/internal/db"
	"github.com/dutyroster/apiserver/internal/handlers"
	"github.com/dutyroster/apiserver/internal/mq"
	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth        *services.AuthService
	Accounts    *services.AccountService
	Schedules   *services.ScheduleService
	WorkRecords *services.WorkRecordService
	Todos       *services.TodoService
}

// NewServices builds every domain service over one transactor.
func NewServices(cfg config.Config, tx services.Transactor, pub services.Publisher, log *zap.Logger) Services {
	hasher := services.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := services.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpireMinutes)*time.Minute)

	return Services{
		Auth:        services.NewAuthService(tx, tokens, hasher, log),
		Accounts:    services.NewAccountService(tx, hasher, pub, log),
		Schedules:   services.NewScheduleService(tx, pub, log),
		WorkRecords: services.NewWorkRecordService(tx, log),
		Todos:       services.NewTodoService(tx, pub, log),
	}
}

// NewTransactor adapts a store to services.Transactor. Every call runs in
// its own database transaction.
func NewTransactor(st *store.Store) services.Transactor {
	return services.TransactorFunc(func(ctx context.Context, fn func(services.Repositories) error) error {
		return st.WithTx(ctx, func(q store.DBTX) error {
			return fn(services.Repositories{
				Accounts:    store.NewAccountRepository(q),
				Schedules:   store.NewScheduleRepository(q),
				WorkRecords: store.NewWorkRecordRepository(q),
				Todos:       store.NewTodoRepository(q),
			})
		})
	})
}

// NewRouter mounts every route with the standard middleware stack.
func NewRouter(svc Services, allowedOrigins []string, log *zap.Logger) *chi.Mux {
	authMiddleware := handlers.RequireAuth(svc.Auth)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(log),
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svc.Auth, authMiddleware)
	})
	router.Route("/students", func(r chi.Router) {
		handlers.AccountRouter(r, svc.Accounts, authMiddleware)
	})
	router.Route("/schedules", func(r chi.Router) {
		handlers.ScheduleRouter(r, svc.Schedules, svc.Accounts, authMiddleware)
	})
	router.Route("/work-records", func(r chi.Router) {
		handlers.WorkRecordRouter(r, svc.WorkRecords, svc.Accounts, authMiddleware)
	})
	router.Route("/todos", func(r chi.Router) {
		handlers.TodoRouter(r, svc.Todos, svc.Accounts, authMiddleware)
	})

	return router
}

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sqlx.DB
	mq         *mq.MQ
	log        *zap.Logger
}

// New opens the database and broker and assembles the HTTP server.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	broker, err := mq.Connect(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	svc := NewServices(cfg, NewTransactor(store.New(dbConn)), mq.NewEventPublisher(broker, cfg.MQ.Channel), log)
	router := NewRouter(svc, cfg.CORSAllowedOrigins, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         broker,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the database and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			s.log.Warn("close mq", zap.Error(closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
