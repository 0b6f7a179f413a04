package api

import (
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/launchdeck-lab/launchdeck-server/internal/api/middleware"
	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"github.com/launchdeck-lab/launchdeck-server/internal/database"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/deployer"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/inference"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/registry"
	"go.uber.org/zap"
)

type APIServer struct {
	app       *fiber.App
	cfg       *config.Config
	db        *database.Database
	registry  *registry.Client
	deployer  *deployer.Service
	inference *inference.Client
	logger    *zap.Logger
	port      int
}

func NewAPIServer(
	cfg *config.Config,
	db *database.Database,
	registryClient *registry.Client,
	deployerService *deployer.Service,
	inferenceClient *inference.Client,
	logger *zap.Logger,
) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.SessionAuth(cfg.App.SessionSecret))

	server := &APIServer{
		app:       app,
		cfg:       cfg,
		db:        db,
		registry:  registryClient,
		deployer:  deployerService,
		inference: inferenceClient,
		logger:    logger,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")

	api.Post("/session", s.handleCreateSession)

	api.Get("/tokens", s.handleListTokens)
	api.Get("/tokens/search", s.handleSearchTokens)

	api.Post("/deploy", s.handleDeploy)

	api.Post("/chat", s.handleChat)
	api.Get("/chat/history", s.handleChatHistory)
	api.Delete("/chat/history", s.handleClearChatHistory)

	api.Get("/wallets", s.handleListWallets)
	api.Post("/wallets", s.handleCreateWallet)
	api.Delete("/wallets/:address", s.handleDeleteWallet)

	api.Get("/launches", s.handleListLaunches)
	api.Delete("/launches/:id", s.handleDeleteLaunch)
}

// Start listens on the given port; port 0 picks a random available port.
// Returns the bound port.
func (s *APIServer) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to bind port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	return s.port, nil
}

// App exposes the fiber app for in-process handler tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
