package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/cmd/cli/commands"
	"github.com/carogaltier/medscheduler/internal/config"
	"github.com/carogaltier/medscheduler/pkg/utils/logging"
)

var version = "dev"

var (
	env        string
	configPath string
	logLevel   string
	app        = &commands.AppContext{Ctx: context.Background()}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medscheduler",
		Short: "medscheduler - synthetic outpatient scheduling datasets",
		Long: `Generate reproducible synthetic outpatient datasets: a slot calendar, appointments
with outcomes and rebookings, and the patients who attend them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects medscheduler_config.<env>.yaml and the token file)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Explicit config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Console log level")

	rootCmd.AddCommand(commands.GenerateCmd(app))
	rootCmd.AddCommand(commands.SummarizeCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app, version))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and loads the configuration
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(logging.Options{Env: env, Level: logLevel})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting medscheduler", zap.String("environment", env), zap.String("version", version))

	// --config takes precedence over MEDSCHED_CONFIG and the file search
	if configPath != "" {
		if err := os.Setenv("MEDSCHED_CONFIG", configPath); err != nil {
			return fmt.Errorf("failed to set config path: %w", err)
		}
	}

	app.Logger.Info("Loading configuration")
	cfg, found, err := config.LoadOrDefault(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !found {
		app.Logger.Info("No config file found, using defaults")
	}
	app.Cfg = cfg
	app.Logger.Debug("Configuration loaded successfully")

	return nil
}
