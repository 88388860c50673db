package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quashMarket/internal/attachments"
	"quashMarket/internal/audit"
	"quashMarket/internal/config"
	"quashMarket/internal/handlers"
	"quashMarket/internal/logger"
	"quashMarket/internal/middleware"
	"quashMarket/internal/migrations"
	"quashMarket/internal/repository/inmemory"
	"quashMarket/internal/repository/postgres"
	"quashMarket/internal/seed"
	"quashMarket/internal/service"
	"quashMarket/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.Repository // интерфейс!
	tasks      *service.TaskService
	offers     *service.OfferService
	categories *service.CategoryService
	skills     *service.SkillService
	dispatcher *audit.Dispatcher
	limiter    middleware.Limiter
	store      *attachments.Store
	worker     *worker.StaleOfferWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.File); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.onShutdown(func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		return err
	}
	if err := a.initAudit(); err != nil {
		return err
	}
	if err := a.initLimiter(); err != nil {
		return err
	}

	store, err := attachments.NewStore(afero.NewOsFs(), a.config.Attachments.Dir, a.config.Attachments.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("хранилище вложений: %w", err)
	}
	a.store = store

	a.tasks = service.NewTaskService(a.repository, a.repository, a.repository, a.dispatcher)
	a.offers = service.NewOfferService(a.repository, a.repository, a.dispatcher)
	a.categories = service.NewCategoryService(a.repository)
	a.skills = service.NewSkillService(a.repository)

	if err := a.seedCategories(ctx); err != nil {
		return err
	}

	a.worker = worker.NewStaleOfferWorker(a.offers, &a.config.Worker.Interval, &a.config.Worker.BatchSize)

	a.router = a.buildRouter()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "quash-market"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		if a.config.Database.AutoMigrate {
			if err := migrations.Up(a.config.Database.URL); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.repository = storage
	default:
		a.repository = inmemory.New()
	}

	logger.Info("App: Хранилище инициализировано", zap.String("type", a.config.Repository.Type))
	a.onShutdown(func() {
		logger.Info("Закрытие хранилища...")
		a.repository.Close()
	})
	return nil
}

func (a *App) initAudit() error {
	var sink audit.Sink = audit.LogSink{}
	if a.config.Audit.Enabled {
		rabbit, err := audit.NewRabbitMQSink(a.config.Audit.RabbitMQURL, a.config.Audit.Queue)
		if err != nil {
			return fmt.Errorf("подключение к rabbitmq: %w", err)
		}
		sink = rabbit
	}
	a.dispatcher = audit.NewDispatcher(sink, a.config.Audit.Buffer)
	a.onShutdown(func() {
		if err := sink.Close(); err != nil {
			logger.Error("Audit: Ошибка закрытия получателя событий", err)
		}
	})
	return nil
}

func (a *App) initLimiter() error {
	if a.config.Redis.Addr == "" {
		a.limiter = middleware.NewMemoryLimiter(a.config.Server.RateLimit, time.Minute)
		return nil
	}
	client, err := middleware.NewRedisClient(a.config.Redis.Addr)
	if err != nil {
		return err
	}
	a.limiter = middleware.NewRedisLimiter(client, a.config.Server.RateLimit, time.Minute)
	a.onShutdown(client.Close)
	return nil
}

func (a *App) seedCategories(ctx context.Context) error {
	if a.config.Categories.SeedFile == "" {
		return nil
	}
	seeds, err := seed.LoadCategories(a.config.Categories.SeedFile)
	if err != nil {
		return err
	}
	created, err := a.categories.EnsureCategories(ctx, seeds)
	if err != nil {
		return fmt.Errorf("заполнение категорий: %w", err)
	}
	logger.Info("App: Категории загружены",
		zap.Int("total", len(seeds)),
		zap.Int("created", created))
	return nil
}

func (a *App) buildRouter() *chi.Mux {
	taskHandler := handlers.NewTaskHandler(a.tasks, a.store, a.config.Attachments.MaxUploadSize)
	offerHandler := handlers.NewOfferHandler(a.offers)
	categoryHandler := handlers.NewCategoryHandler(a.categories)
	skillHandler := handlers.NewSkillHandler(a.skills)
	auth := middleware.Auth(middleware.NewTokenVerifier(a.config.Auth.JWTSecret))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.limiter))

	r.Get("/health", taskHandler.HealthCheck)
	r.Get("/task-categories", categoryHandler.GetCategories)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.GetUserTasks)           // GET /tasks
			r.Post("/", taskHandler.PostTask)              // POST /tasks
			r.Get("/all", taskHandler.GetAllTasks)         // GET /tasks/all
			r.Get("/quashed", taskHandler.GetQuashedTasks) // GET /tasks/quashed
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}
			})
		})

		r.Route("/offers", func(r chi.Router) {
			r.Post("/", offerHandler.PostOffer)                 // POST /offers
			r.Get("/task/{taskId}", offerHandler.GetTaskOffers) // GET /offers/task/{taskId}
			r.Put("/{id}/accept", offerHandler.AcceptOffer)     // PUT /offers/{id}/accept
			r.Put("/{id}/reject", offerHandler.RejectOffer)     // PUT /offers/{id}/reject
			r.Put("/{id}/withdraw", offerHandler.WithdrawOffer) // PUT /offers/{id}/withdraw
		})

		r.Post("/task-categories", categoryHandler.PostCategory)
		r.Put("/task-categories/{id}", categoryHandler.UpdateCategory)
		r.Delete("/task-categories/{id}", categoryHandler.DeleteCategory)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", skillHandler.GetUserSkills)
			r.Post("/", skillHandler.PostSkill)
			r.Get("/{id}", skillHandler.GetSkill)
			r.Put("/{id}", skillHandler.UpdateSkill)
			r.Delete("/{id}", skillHandler.DeleteSkill)
		})
	})

	return r
}

// Handler - корневой обработчик со всеми middleware
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP сервер, диспетчер аудита и фоновый воркер до отмены ctx
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.dispatcher.Run(gctx)
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) onShutdown(fn func()) {
	a.shutdowns = append(a.shutdowns, fn)
}

// Close освобождает ресурсы в обратном порядке; Run вызывает его сам
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
