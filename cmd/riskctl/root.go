package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/infrastructure/config"
	kafkainfra "github.com/mkdev28/Cropp/internal/infrastructure/kafka"
	"github.com/mkdev28/Cropp/internal/infrastructure/persistence"
	pkgkafka "github.com/mkdev28/Cropp/pkg/kafka"
	"github.com/mkdev28/Cropp/pkg/observability"
)

var version = "dev"

// cli carries the state shared by every subcommand. Flags override the
// environment configuration.
type cli struct {
	logLevel    string
	registry    string
	databaseURL string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "riskctl",
		Short: "riskctl - manage crop-insurance risk bundles",
		Long: `riskctl trains, inspects and activates the model bundles served by
risk-service, and scores farm records offline.

Bundles are stored in Postgres when DATABASE_URL is set and in the local
SQLite registry otherwise.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL)")
	flags.StringVar(&c.registry, "registry", "", "SQLite bundle registry path (default $REGISTRY_PATH)")
	flags.StringVar(&c.databaseURL, "database-url", "", "Postgres URL; overrides $DATABASE_URL")

	cmd.AddCommand(newTrainCommand(c))
	cmd.AddCommand(newScoreCommand(c))
	cmd.AddCommand(newInspectCommand(c))
	cmd.AddCommand(newListCommand(c))
	cmd.AddCommand(newActivateCommand(c))
	cmd.AddCommand(newRollbackCommand(c))
	cmd.AddCommand(newMigrateCommand(c))

	return cmd
}

func execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return newRootCommand().ExecuteContext(ctx)
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.registry != "" {
		cfg.RegistryPath = c.registry
	}
	if cmd.Flags().Changed("database-url") {
		cfg.DatabaseURL = c.databaseURL
	}
	c.cfg = cfg
	c.logger = observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: "text",
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (c *cli) openStores(ctx context.Context) (*persistence.Stores, error) {
	return persistence.Open(ctx, persistence.Options{
		DatabaseURL:   c.cfg.DatabaseURL,
		RunMigrations: c.cfg.RunMigrations,
		RegistryPath:  c.cfg.RegistryPath,
	}, c.logger)
}

// publisher returns a nil publisher when Kafka is not configured. The
// returned close func is always safe to call.
func (c *cli) publisher() (port.EventPublisher, func(), error) {
	if !c.cfg.KafkaEnabled() {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:       c.cfg.KafkaBrokers,
		TLS:           c.cfg.KafkaTLS,
		SASLEnabled:   c.cfg.KafkaSASLMechanism != "",
		SASLMechanism: c.cfg.KafkaSASLMechanism,
		SASLUsername:  c.cfg.KafkaSASLUsername,
		SASLPassword:  c.cfg.KafkaSASLPassword,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := producer.Close(); err != nil {
			c.logger.Warn("failed to close kafka producer", "error", err)
		}
	}
	return kafkainfra.NewPublisher(producer, c.cfg.KafkaTopic, c.logger), closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
