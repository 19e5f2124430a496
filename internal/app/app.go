package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/gateway"
	"github.com/yungbote/lessonforge-backend/internal/handlers"
	"github.com/yungbote/lessonforge-backend/internal/middleware"
	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/realtime"
	"github.com/yungbote/lessonforge-backend/internal/realtime/bus"
	"github.com/yungbote/lessonforge-backend/internal/server"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	Store  *store.Store
	Hub    *realtime.Hub
	Bus    bus.Bus
	Ops    *gateway.Operations
	Router *gin.Engine
	cancel context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	backend, err := resolveObjectStore(log, cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	tax := store.LoadTaxonomy(cfg.SectionsFile)
	docStore := store.New(log, backend, cfg.KeyPrefix, tax)

	hub := realtime.NewHub(log)

	var eventBus bus.Bus
	if cfg.RedisAddr != "" {
		eventBus, err = bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init event bus: %w", err)
		}
	}
	publisher := newEventPublisher(log, hub, eventBus)

	gw := gateway.New(log, gateway.NewResultCache(cfg.ResultTTL), gateway.NewDebounceGate(cfg.DebounceDelay))
	ops := gateway.NewOperations(log, docStore, publisher, gw, protectionChecker(cfg.ProtectedLessons))

	authMiddleware := middleware.NewAuthMiddleware(log, cfg.AuthSharedSecret)
	router := server.NewRouter(server.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: authMiddleware,
		ToolsHandler:   handlers.NewToolsHandler(log, ops),
		LessonHandler:  handlers.NewLessonHandler(log, docStore),
		CatalogHandler: handlers.NewCatalogHandler(log, docStore),
		ProfileHandler: handlers.NewProfileHandler(log, docStore),
		EventsHandler:  handlers.NewEventsHandler(log, hub),
	})

	return &App{
		Log:    log,
		Cfg:    cfg,
		Store:  docStore,
		Hub:    hub,
		Bus:    eventBus,
		Ops:    ops,
		Router: router,
	}, nil
}

// Start launches the hub loop and, when configured, the bus forwarder.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.Hub.Run(ctx)

	if a.Bus != nil {
		if err := a.Bus.StartForwarder(ctx, func(m bus.Message) {
			a.Hub.Publish(m.Account, m.Event, 0)
		}); err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// protectionChecker guards the configured lesson IDs (seeded demo content)
// against mutation by any actor.
func protectionChecker(protectedIDs []string) gateway.ProtectionChecker {
	if len(protectedIDs) == 0 {
		return nil
	}
	protected := make(map[string]bool, len(protectedIDs))
	for _, id := range protectedIDs {
		protected[id] = true
	}
	return func(_ context.Context, _ string, lessonID string) error {
		if protected[lessonID] {
			return fmt.Errorf("lesson %s: %w", lessonID, pkgerr.ErrProtected)
		}
		return nil
	}
}
