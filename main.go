package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cowriter/config"
	"cowriter/controllers"
	"cowriter/routes"
	"cowriter/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cowriter",
	Short: "Scholarship essay co-writer",
	Long: `cowriter co-writes scholarship essays with a chat-completion model.

It asks one question at a time, turns each answer into the next few sentences
of the essay and streams the text back as it is written.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		// the terminal client shares stdout with the essay, so only warnings are logged there
		logger, err = initializeLogger(cfg.Logging.Level, cmd.Name() == chatCmd.Name())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cowriter.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(winnersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initializeLogger(level string, quiet bool) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		logLevel = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else if quiet && logLevel.Level() < zapcore.WarnLevel {
		logLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	return loggerConfig.Build()
}

// newProvider picks the offline mock or the OpenAI backend.
func newProvider() (services.Provider, controllers.ProfileExtractor) {
	if cfg.Provider.Mock {
		logger.Info("using mock provider")
		mock := services.NewMockProvider()
		return mock, mock
	}
	if cfg.Provider.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; provider calls will fail")
	}
	return services.NewOpenAIService(cfg.Provider, cfg.ProviderTimeout(), logger),
		services.NewDescriptionService(cfg.Provider, logger)
}

// newWinnerFinder picks the offline mock or the web search pipeline.
func newWinnerFinder() controllers.WinnerFinder {
	if cfg.Provider.Mock {
		return services.NewMockProvider()
	}
	if cfg.Search.APIKey == "" {
		logger.Warn("TAVILY_API_KEY is not set; past winner search will fail")
	}
	research := services.NewResearchService(cfg.Search, cfg.FetchTimeout(), logger)
	return services.NewPastWinnerService(cfg.Provider, research, logger)
}

func sessionOptions() services.SessionOptions {
	return services.SessionOptions{
		AnalyzeFirst: cfg.Session.AnalyzeFirst,
		CycleTimeout: cfg.CycleTimeout(),
		Animator:     services.NewAnimator(cfg.WordDelay(), cfg.CharDelay()),
		Logger:       logger,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	gin.SetMode(cfg.Server.Mode)

	provider, extractor := newProvider()
	router := routes.SetupRouter(routes.Dependencies{
		Provider:  provider,
		Extractor: extractor,
		Winners:   newWinnerFinder(),
		Sessions:  services.NewSessionStore(provider, sessionOptions()),
		Renderer:  services.NewRenderService(),
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("model", cfg.Provider.Model))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
