package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/michal94mk/taskflow/internal/logging"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// goose keeps its dialect, base FS and logger in package globals
var migrateMu sync.Mutex

// Config selects and tunes the storage backend
type Config struct {
	Driver string // sqlite (default) or postgres
	Path   string // sqlite database file
	DSN    string // postgres connection string
	Debug  bool   // log every SQL statement
	Logger *logrus.Entry
}

// DB wraps the gorm handle together with the underlying connection pool.
// Inside Transaction the embedded handle is bound to the transaction.
type DB struct {
	*gorm.DB
	sqlDB  *sql.DB
	driver string
	log    *logrus.Entry
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskflow"
	}
	return filepath.Join(home, ".local", "share", "taskflow")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "taskflow.db")
}

// Open opens a SQLite database at dbPath and runs migrations
func Open(dbPath string) (*DB, error) {
	return OpenConfig(Config{Driver: DriverSQLite, Path: dbPath})
}

// OpenConfig opens the configured backend, runs migrations and seeds the
// default statuses and priorities into empty reference tables.
func OpenConfig(cfg Config) (*DB, error) {
	log := logging.OrDiscard(cfg.Logger).WithField("component", "db")

	var (
		sqlDB     *sql.DB
		dialector gorm.Dialector
		err       error
	)

	switch cfg.Driver {
	case "", DriverSQLite:
		cfg.Driver = DriverSQLite
		sqlDB, err = openSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite3", Conn: sqlDB})
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.Debug {
		gormLogger = logger.New(log.WithField("component", "gorm"), logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Info,
		})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	db := &DB{DB: gdb, sqlDB: sqlDB, driver: cfg.Driver, log: log}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.EnsureReferenceData(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	return db, nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer. Never query the root handle while a
	// transaction is open: the second query waits for a connection forever.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return sqlDB, nil
}

// migrationDir returns the embedded directory and goose dialect for the driver
func (db *DB) migrationDir() (string, string) {
	if db.driver == DriverPostgres {
		return "migrations/postgres", "postgres"
	}
	return "migrations/sqlite", "sqlite3"
}

// migrate runs database migrations using embedded SQL files
func (db *DB) migrate() error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	dir, dialect := db.migrationDir()

	goose.SetLogger(gooseLogger{db.log})
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db.sqlDB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current schema version
func (db *DB) MigrationVersion() (int64, error) {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	_, dialect := db.migrationDir()
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(db.sqlDB)
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// Driver returns the configured backend name
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// conn returns a gorm session bound to ctx
func (db *DB) conn(ctx context.Context) *gorm.DB {
	return db.DB.WithContext(ctx)
}

// Transaction executes fn within a transaction. The *DB passed to fn is
// bound to the transaction and must be used for every query inside it.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.conn(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&DB{DB: gtx, sqlDB: db.sqlDB, driver: db.driver, log: db.log})
	})
}

// gooseLogger routes goose output to logrus at debug level
type gooseLogger struct {
	log *logrus.Entry
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}
