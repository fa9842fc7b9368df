package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/breezebot/breezebot/internal/chat"
	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/internal/orchestrator"
	"github.com/breezebot/breezebot/internal/providers/llm"
	"github.com/breezebot/breezebot/internal/providers/mcp"
	"github.com/breezebot/breezebot/internal/storage/sqlite"
	"github.com/breezebot/breezebot/internal/tools"
	"github.com/breezebot/breezebot/internal/transport/httpapi"
	"github.com/breezebot/breezebot/pkg/log"
	"github.com/breezebot/breezebot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	modelCfg := config.NewModelConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))
	turnsRepo := sqlite.NewTurnsRepo(db)

	// 3. Tool server. When the connection fails the gateway still serves
	// plain chat, with tools reported as unreachable on /healthz.
	registry := tools.NewRegistry()
	var caller tools.Caller
	var pinger httpapi.Pinger

	toolSvc, err := mcp.Connect(ctx, mcp.ServerConfig{
		Command: appCfg.ToolServerCommand,
		Args:    appCfg.ToolServerArgs,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("tool server unavailable, continuing without tools")
	} else {
		services = append(services, srv.NewCleanup(toolSvc.Close))
		caller = toolSvc
		pinger = toolSvc

		descriptors, err := toolSvc.ListTools(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to list tools")
		}
		for _, d := range descriptors {
			if err := registry.Register(d); err != nil {
				logger.Fatal().Err(err).Str("tool", d.Name).Msg("failed to register tool")
			}
		}
		logger.Info().Int("tools", registry.Len()).Msg("tool catalog loaded")
	}

	invoker := tools.NewInvoker(registry, caller, appCfg.ToolTimeout)

	// 4. Generator
	system := llm.LoadSystemPrompt(appCfg.GetPromptsPath())
	window := llm.NewWindow(modelCfg.ContextSize, modelCfg.MaxTokens)
	prompts := llm.NewPromptBuilder(system, registry.List(), window)
	generator := llm.NewLlamaCpp(modelCfg, prompts)

	// 5. Sessions
	sessions := orchestrator.NewSessions(func(id string, conv *chat.Conversation) *orchestrator.Orchestrator {
		return orchestrator.New(id, conv, generator, invoker, turnsRepo, appCfg.MaxToolRounds)
	})

	// 6. HTTP gateway
	handler := httpapi.NewHandler(sessions, generator, pinger)
	services = append(services, httpapi.NewServer(appCfg, handler))

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
