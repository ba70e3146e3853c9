package db

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aTrapDeer/portfolio-backend/internal/config"
)

// Dialector picks the gorm dialect for the configured engine. The returned
// target is safe to log (no password).
func Dialector(cfg config.Database) (gorm.Dialector, string, error) {
	switch cfg.Engine {
	case config.EngineSQLite, "":
		path := cfg.SQLitePath()
		return sqlite.Open(path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"), path, nil
	case config.EngineMySQL:
		return mysql.Open(MySQLDSN(cfg)), fmt.Sprintf("%s@%s/%s", cfg.MySQLUser, mysqlAddr(cfg), cfg.MySQLDatabase), nil
	default:
		return nil, "", fmt.Errorf("unknown database engine %q", cfg.Engine)
	}
}

// MySQLDSN builds the driver DSN from the MYSQL_* settings.
func MySQLDSN(cfg config.Database) string {
	c := mysqldriver.NewConfig()
	c.User = cfg.MySQLUser
	c.Passwd = cfg.MySQLPassword
	c.Net = "tcp"
	c.Addr = mysqlAddr(cfg)
	c.DBName = cfg.MySQLDatabase
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func mysqlAddr(cfg config.Database) string {
	return net.JoinHostPort(cfg.MySQLHost, strconv.Itoa(cfg.MySQLPort))
}

// Open connects to the configured engine and checks the connection.
func Open(cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	dialector, target, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Engine == config.EngineSQLite || cfg.Engine == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	log.Info("connecting to database", "engine", cfg.Engine, "target", target)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Engine, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Engine == config.EngineMySQL {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// one writer; WAL keeps readers unblocked
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.Engine, err)
	}
	log.Info("database connected", "engine", cfg.Engine)
	return gdb, nil
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
