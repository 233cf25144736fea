package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"flickai-server-go/internal/app/services"
	"flickai-server-go/internal/domain/chat"
	"flickai-server-go/internal/domain/eventbus"
	domainimage "flickai-server-go/internal/domain/image"
	"flickai-server-go/internal/domain/vision"
	platformconfig "flickai-server-go/internal/platform/config"
	platformerrors "flickai-server-go/internal/platform/errors"
	platformlogging "flickai-server-go/internal/platform/logging"
	platformobservability "flickai-server-go/internal/platform/observability"
	platformstorage "flickai-server-go/internal/platform/storage"
	httptransport "flickai-server-go/internal/transport/http"
	httpassist "flickai-server-go/internal/transport/http/assist"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string

	config    *platformconfig.Config
	logger    *platformlogging.Logger
	obsDown   platformobservability.ShutdownFunc
	store     *platformstorage.TranscriptStore
	bus       *eventbus.Bus
	vision    *vision.Pipeline
	chat      *chat.Orchestrator
	assistant *services.AssistantService
}

// Options configures the bootstrap. ConfigPath may be empty; the loader
// then falls back to environment variables and built-in defaults.
type Options struct {
	ConfigPath string
}

// Run drives the whole service lifecycle: configuration, dependency
// initialization, serving, and graceful shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer logger.Close()

	if shutdown := state.obsDown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag("Bootstrap", "observability shutdown: %v", err)
			}
		}()
	}

	if state.store != nil {
		defer func() {
			if err := state.store.Close(); err != nil {
				logger.WarnTag("Bootstrap", "transcript store close: %v", err)
			}
		}()
	}
	defer state.bus.Wait()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	logger.InfoTag("Bootstrap", "service started")
	return waitForShutdown(signalCtx, cancel, logger, group)
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(platformerrors.KindBootstrap, step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep))
			}
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph lists the initialization steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-transcripts",
			Title:     "Initialise transcript store",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStorageStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "vision:init-pipeline",
			Title:     "Initialise vision pipeline",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindVision,
			Execute:   initVisionStep,
		},
		{
			ID:        "chat:init-orchestrator",
			Title:     "Initialise chat orchestrator",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindChat,
			Execute:   initChatStep,
		},
		{
			ID:        "services:init-assistant",
			Title:     "Initialise assistant service",
			DependsOn: []string{"storage:init-transcripts", "eventbus:init", "vision:init-pipeline", "chat:init-orchestrator"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAssistantStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	cfg, err := platformconfig.NewLoader().
		WithPath(state.configPath).
		WithDotEnv(true).
		Load()
	if err != nil {
		return err
	}
	state.config = cfg
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	logger.InfoTag("Bootstrap", "logging ready [%s]", state.config.Log.Level)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}, state.logger.Slog())
	if err != nil {
		return err
	}
	state.obsDown = shutdown
	return nil
}

func initStorageStep(_ context.Context, state *appState) error {
	if !state.config.Storage.Enabled {
		state.logger.InfoTag("Bootstrap", "transcript persistence disabled")
		return nil
	}
	store, err := platformstorage.Open(state.config.Storage.DSN)
	if err != nil {
		return err
	}
	state.store = store
	state.logger.InfoTag("Bootstrap", "transcript store ready at %s", state.config.Storage.DSN)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()

	logger := state.logger
	if err := state.bus.Subscribe(eventbus.TopicVisionResolved, func(sessionID, provenance string) {
		logger.InfoTag("Events", "vision resolved for session %s via %s", sessionID, provenance)
	}); err != nil {
		return err
	}
	if err := state.bus.Subscribe(eventbus.TopicChatCompleted, func(sessionID string, chars int) {
		logger.InfoTag("Events", "chat turn completed for session %s (%d chars)", sessionID, chars)
	}); err != nil {
		return err
	}
	return state.bus.Subscribe(eventbus.TopicChatFailed, func(sessionID, reason string) {
		logger.WarnTag("Events", "chat turn failed for session %s: %s", sessionID, reason)
	})
}

func initVisionStep(_ context.Context, state *appState) error {
	images, err := domainimage.NewPipeline(domainimage.Options{
		Security: &state.config.Security,
		Logger:   state.logger,
	})
	if err != nil {
		return err
	}

	var describer vision.Describer
	if state.config.Vision.APIKey != "" {
		remote, err := vision.NewOpenAIDescriber(state.config.Vision, state.logger)
		if err != nil {
			return err
		}
		describer = remote
	} else {
		state.logger.WarnTag("Bootstrap", "no vision API key, captures resolve through OCR only")
	}

	pipeline, err := vision.NewPipeline(vision.PipelineOptions{
		Images:     images,
		Describer:  describer,
		Recognizer: vision.NewTesseractRecognizer(state.config.OCR.Languages),
		Timeout:    state.config.Vision.Timeout,
		Logger:     state.logger,
	})
	if err != nil {
		return err
	}
	state.vision = pipeline
	return nil
}

func initChatStep(_ context.Context, state *appState) error {
	state.chat = chat.NewOrchestrator(state.config.Chat, state.logger)
	if state.config.Chat.APIKey == "" {
		state.logger.WarnTag("Bootstrap", "no chat API key, running in demo mode")
	}
	return nil
}

func initAssistantStep(_ context.Context, state *appState) error {
	assistant, err := services.NewAssistantService(services.AssistantConfig{
		Chat:   state.chat,
		Vision: state.vision,
		Store:  state.store,
		Bus:    state.bus,
		Logger: state.logger,
	})
	if err != nil {
		return err
	}
	state.assistant = assistant
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config: state.config,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	router.Engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httptransport.APIResponse{
			Success: false,
			Data:    gin.H{},
			Message: "not found",
			Code:    http.StatusNotFound,
		})
	})

	assistService, err := httpassist.NewService(state.assistant, state.store, logger, state.config.Security.MaxFileSize)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "assist:new-service", "failed to create assist service", err)
	}
	if err := assistService.Register(groupCtx, router.API); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "assist:register", "failed to register assist routes", err)
	}

	httpServer := &http.Server{
		Addr:    state.config.Server.IP + ":" + strconv.Itoa(state.config.Server.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "serve failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, logger *platformlogging.Logger, g *errgroup.Group) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutdown requested: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}
