package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/AliMakkawi/library-management/library/app"
	"github.com/AliMakkawi/library-management/library/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env file, using process environment")
	}

	root := &cobra.Command{
		Use:          "library",
		Short:        "Library management service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Run(loadConfig())
			return nil
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the activity consumer",
			RunE: func(cmd *cobra.Command, args []string) error {
				app.Run(loadConfig())
				return nil
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Migrate(loadConfig())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load the demo catalog and accounts",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Seed(loadConfig())
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	return config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)
}
