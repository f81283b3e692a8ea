// Stock Up: a proximity restock advisor.
//
// Tracks pantry stock and reminds the household what to buy when a device
// position enters the geofence of a nearby store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/database"
	"github.com/stockup/stockup/internal/logging"
	"github.com/stockup/stockup/internal/services/advisor"
	"github.com/stockup/stockup/internal/tui"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "stockup",
	Short: "Stock Up - reminds you what to buy when you reach a store",
	Long: `Stock Up tracks pantry stock levels and watches the device position.
When the position enters a nearby store while items are running low, it
raises a reminder listing what to buy.

Run "stockup run" to start the advisor with the terminal console.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pantryCmd)
	rootCmd.AddCommand(groceryCmd)
	rootCmd.AddCommand(storesCmd)
	rootCmd.AddCommand(versionCmd)

	tui.Version = Version
	tui.BuildTime = BuildTime
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session is an open configuration, logger and database for one command.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

// openSession loads configuration, builds the logger and opens and migrates
// the database. console sends log output to stderr in addition to any
// configured log file.
func openSession(ctx context.Context, console bool) (*session, error) {
	cfg, cfgPath, err := config.Load(configPath, true)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if debugMode {
		cfg.Logging.Level = config.LogLevelDebug
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging, logging.Options{File: logPath, Console: console})
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("version", Version),
		zap.String("config_path", cfgPath))

	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}
	db, err := database.Open(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	result, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if len(result.Applied) > 0 {
		logger.Info("migrations applied", zap.Int("count", len(result.Applied)))
	}

	return &session{cfg: cfg, logger: logger, db: db}, nil
}

// advisor wires the advisor over the session and loads stored state.
func (s *session) advisor(ctx context.Context) (*advisor.Service, error) {
	svc, err := advisor.New(s.cfg, s.db, advisor.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	if err := svc.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return svc, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", zap.Error(err))
	}
	_ = s.logger.Sync()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Stock Up version %s (built %s)\n", Version, BuildTime)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := database.NewMigrator(s.db)
		if err != nil {
			return err
		}
		version, err := m.CurrentVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s at schema version %d\n", s.db.Path(), version)
		return nil
	},
}
