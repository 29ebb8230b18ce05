package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	coreDB "github.com/AzielCF/az-ravena/core/database"
	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	"github.com/AzielCF/az-ravena/domains/command"
	"github.com/AzielCF/az-ravena/domains/group"
	domainHistory "github.com/AzielCF/az-ravena/domains/history"
	"github.com/AzielCF/az-ravena/domains/invite"
	"github.com/AzielCF/az-ravena/domains/loadreport"
	"github.com/AzielCF/az-ravena/domains/speech"
	"github.com/AzielCF/az-ravena/infrastructure/alltalk"
	"github.com/AzielCF/az-ravena/infrastructure/cooldown"
	"github.com/AzielCF/az-ravena/infrastructure/ffmpeg"
	"github.com/AzielCF/az-ravena/infrastructure/history"
	"github.com/AzielCF/az-ravena/infrastructure/llm"
	"github.com/AzielCF/az-ravena/infrastructure/nsfw"
	"github.com/AzielCF/az-ravena/infrastructure/storage/gormstore"
	"github.com/AzielCF/az-ravena/infrastructure/storage/jsonstore"
	"github.com/AzielCF/az-ravena/infrastructure/stt"
	"github.com/AzielCF/az-ravena/infrastructure/valkey"
	"github.com/AzielCF/az-ravena/infrastructure/whatsapp"
	"github.com/AzielCF/az-ravena/pkg/botmonitor"
	"github.com/AzielCF/az-ravena/pkg/msgworker"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/AzielCF/az-ravena/ui/rest"
	"github.com/AzielCF/az-ravena/ui/rest/middleware"
	"github.com/AzielCF/az-ravena/ui/websocket"
	"github.com/AzielCF/az-ravena/usecase"
	"github.com/AzielCF/az-ravena/usecase/commandhandler"
	"github.com/AzielCF/az-ravena/usecase/commands"
	"github.com/AzielCF/az-ravena/usecase/eventhandler"
	inviteSystem "github.com/AzielCF/az-ravena/usecase/invite"
	"github.com/AzielCF/az-ravena/usecase/mention"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the bots and the web dashboard",
	RunE:  restServer,
}

// store is the persistence the bots share: groups, pending joins and load reports.
type store interface {
	group.IGroupRepository
	invite.IInviteRepository
	loadreport.IReportRepository
}

// openStore returns the configured store. The close func releases the SQL
// connection, if any.
func openStore(cfg *config.Config) (store, func(), error) {
	switch cfg.Database.StorageDriver {
	case "json", "":
		s, err := jsonstore.New(cfg.Paths.Data)
		if err != nil {
			return nil, nil, err
		}
		logrus.Infof("[STORAGE] Using JSON files under %s", s.Dir())
		return s, func() {}, nil
	case "sqlite", "postgres":
		db, err := coreDB.NewDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		s := gormstore.New(db)
		if err := s.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate %s store: %w", cfg.Database.StorageDriver, err)
		}
		logrus.Infof("[STORAGE] Using %s database %s", cfg.Database.StorageDriver, cfg.Database.Name)
		return s, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Database.StorageDriver)
	}
}

// openValkey connects when Valkey is enabled. A failed connection leaves the
// process on the in-memory stores.
func openValkey(cfg *config.Config) *valkey.Client {
	if !cfg.Database.ValkeyEnabled {
		return nil
	}
	client, err := valkey.NewClient(valkey.Config{
		Address:   cfg.Database.ValkeyAddress,
		Password:  cfg.Database.ValkeyPassword,
		DB:        cfg.Database.ValkeyDB,
		KeyPrefix: cfg.Database.ValkeyKeyPrefix,
	})
	if err != nil {
		logrus.WithError(err).Warn("[VALKEY] Connection failed, falling back to memory")
		return nil
	}
	logrus.Infof("[VALKEY] Connected to %s", cfg.Database.ValkeyAddress)
	return client
}

func newTranscriber(cfg *config.Config) speech.ITranscriber {
	switch cfg.Speech.STTProvider {
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			logrus.Warn("[STT] Gemini selected without GEMINI_API_KEY, transcription disabled")
			return nil
		}
		return stt.NewGeminiTranscriber(cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	case "none", "off":
		return nil
	default:
		return stt.NewWhisperTranscriber(cfg.Speech.WhisperPath, cfg.Speech.WhisperModel, cfg.Speech.Language)
	}
}

// botRegistry lets the components built before the manager reach it.
type botRegistry struct {
	manager *whatsapp.Manager
}

func (r *botRegistry) Get(id string) (domainBot.IBot, bool) {
	if r.manager == nil {
		return nil, false
	}
	return r.manager.Get(id)
}

func (r *botRegistry) List() []domainBot.IBot {
	if r.manager == nil {
		return nil
	}
	return r.manager.List()
}

func (r *botRegistry) RestartBot(ctx context.Context, botID, reason string) error {
	if r.manager == nil {
		return fmt.Errorf("bots are not running")
	}
	return r.manager.RestartBot(ctx, botID, reason)
}

func restServer(_ *cobra.Command, _ []string) error {
	cfg := config.Global

	bots, err := config.LoadBots(cfg.Bot.ConfigFile, cfg.Whatsapp.DefaultPrefix)
	if err != nil {
		return err
	}
	cfg.Bots = bots

	auth, err := middleware.BasicAuth(cfg.App.BasicAuth)
	if err != nil {
		logrus.Fatalf("APP_BASIC_AUTH is required, set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>]: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	vk := openValkey(cfg)
	serverID := utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	var historyStore domainHistory.IHistoryStore = history.NewMemoryStore(cfg.Bot.HistorySize)
	cooldowns := newCooldown(ctx, vk)
	if vk != nil {
		historyStore = history.NewValkeyStore(vk, cfg.Bot.HistorySize)
		websocket.SetValkeyClient(vk, serverID)
	}

	registry := &botRegistry{}
	llmService := llm.NewServiceFromConfig(cfg.LLM)
	converter := ffmpeg.NewConverter(cfg.Speech.FFmpegPath)
	transcriber := newTranscriber(cfg)
	invites := inviteSystem.NewSystem(cfg.Bot.InviteReasonWait)

	commandHandler := commandhandler.New(repo, cooldowns, cfg.Whatsapp.SuperAdmins, cfg.Bot.CommandCooldown)
	speechCommands := commands.NewSpeech(alltalk.NewClient(cfg.Speech.AllTalkAPI, cfg.Speech.Language), transcriber, converter, llmService, commands.SpeechOptions{
		TempDir:       cfg.Paths.Temp,
		Punctuate:     cfg.Speech.PunctuateSTT,
		LongTextLimit: cfg.Speech.LongTextLimit,
	})
	commandHandler.Register(commands.NewGeneral(commandHandler, historyStore, llmService, cfg.Bot.HistorySize).Commands()...)
	commandHandler.Register(commands.NewManagement(repo).Commands()...)
	commandHandler.Register(speechCommands.Commands()...)
	commandHandler.Register(commands.NewConversions(converter, cfg.Paths.Temp).Commands()...)
	commandHandler.Register(commands.NewSuperAdmin(repo, repo, invites, registry).Commands()...)
	logrus.Infof("[COMMANDS] %d commands registered", len(commandHandler.Commands()))

	deps := eventhandler.Deps{
		Groups:   repo,
		Invites:  repo,
		History:  historyStore,
		Commands: commandHandler,
		Speech:   speechCommands,
		Invite:   invites,
		Mention:  mention.NewHandler(llmService),
		LLM:      llmService,
		Pool:     msgworker.GetGlobalPool(),
		Notify:   websocket.PublishStatus,
	}
	if cfg.NSFW.APIURL != "" {
		deps.NSFW = nsfw.NewClient(cfg.NSFW.APIURL, cfg.NSFW.Threshold)
	}
	events := eventhandler.New(deps)

	reporter := usecase.NewLoadReporter(repo, registry, cfg.Bot.LoadReportInterval)
	manager := whatsapp.NewManager(cfg, events, reporter, websocket.PublishStatus)
	registry.manager = manager

	app := newFiberApp(cfg)
	apiGroup := app.Group(cfg.App.BasePath + "/api")
	apiGroup.Use(auth)

	rest.InitRestHealth(app.Group(cfg.App.BasePath), usecase.NewHealthService(registry, repo, reporter), usecase.NewAnalyticsService(repo))
	rest.InitRestBot(app.Group(cfg.App.BasePath), apiGroup, registry, auth)
	rest.InitRestMonitoring(apiGroup, msgworker.GetGlobalPool())
	websocket.RegisterRoutes(apiGroup, registry)
	go websocket.RunHub(ctx)
	botmonitor.OnRecord = forwardPipelineErrors

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	app.Use(cfg.App.BasePath+"/", filesystem.New(filesystem.Config{
		Root:         http.Dir(cfg.Paths.Public),
		Browse:       false,
		Index:        "index.html",
		MaxAge:       3600,
		NotFoundFile: "index.html",
	}))

	manager.StartAll(ctx)
	go reporter.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Errorf("[REST] Failed to start: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	manager.StopAll(stopCtx)
	cancel()
	msgworker.StopGlobalPool()
	if vk != nil {
		vk.Close()
	}
	logrus.Info("[APP] Application stopped cleanly.")
	return nil
}

func newCooldown(ctx context.Context, vk *valkey.Client) command.ICooldown {
	if vk != nil {
		return cooldown.NewValkeyCooldown(vk)
	}
	c := cooldown.NewMemoryCooldown()
	c.StartJanitor(ctx, 10*time.Minute)
	return c
}

// forwardPipelineErrors pushes failed pipeline stages to the dashboard.
func forwardPipelineErrors(e botmonitor.Event) {
	if e.Status != botmonitor.StatusError {
		return
	}
	websocket.PublishStatus(domainBot.StatusEvent{
		Type:  domainBot.StatusError,
		BotID: e.BotID,
		Data: map[string]any{
			"stage":   e.Stage,
			"chat_id": e.ChatID,
			"error":   e.Error,
		},
		Timestamp: e.Timestamp,
	})
}

func newFiberApp(cfg *config.Config) *fiber.App {
	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "ravenabot " + cfg.App.Version,
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
	}

	app := fiber.New(fiberConfig)
	app.Use(requestid.New())

	origins := strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	if cfg.App.BaseUrl != "" && !strings.Contains(origins, cfg.App.BaseUrl) {
		origins += ", " + cfg.App.BaseUrl
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self' ws: wss:;",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}
	return app
}
