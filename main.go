package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/aTrapDeer/portfolio-backend/internal/auth"
	"github.com/aTrapDeer/portfolio-backend/internal/backup"
	"github.com/aTrapDeer/portfolio-backend/internal/config"
	"github.com/aTrapDeer/portfolio-backend/internal/db"
	"github.com/aTrapDeer/portfolio-backend/internal/logger"
	"github.com/aTrapDeer/portfolio-backend/internal/seed"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:          "portfolio-backend",
	Short:        "Portfolio content API",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		gdb, err := db.Open(cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		rollback, _ := cmd.Flags().GetBool("rollback")
		if rollback {
			if err := db.RollbackLast(gdb); err != nil {
				return err
			}
			log.Info("rolled back last migration")
			return nil
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty database with sample content",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		gdb, err := openMigrated(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		_, err = seed.Run(cmd.Context(), storage.NewGorm(gdb, cfg.CacheTTL), log)
		return err
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write one database snapshot and prune old ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		if cfg.Database.Engine == config.EngineMySQL {
			fmt.Fprintln(cmd.OutOrStdout(), "MySQL backups are handled by the database server")
			return nil
		}
		gdb, err := db.Open(cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		path, err := newSnapshotter(gdb, cfg, log).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long:  "Print a bcrypt hash for ADMIN_PASSWORD_HASH. Without an argument the password is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("password must not be empty")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("rollback", false, "roll back the most recent migration instead")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, backupCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the process logger.
func setup(serve bool) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	validate := cfg.Validate
	if serve {
		validate = cfg.ValidateServe
	}
	if err := validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, log, nil
}

func openMigrated(cfg config.Config, log *slog.Logger) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}
	return gdb, nil
}

func newSnapshotter(gdb *gorm.DB, cfg config.Config, log *slog.Logger) *backup.Snapshotter {
	return backup.New(gdb, filepath.Join(cfg.Database.DataDir, "backups"), cfg.Backup.Retention, log)
}
