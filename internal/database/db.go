package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"restoran-backend/internal/config"
	"restoran-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the shared GORM connection. It is constructed once in main and
// passed to every component that needs persistence.
type Client struct {
	conn *gorm.DB
}

// Open connects to Postgres using the configured DSN and pool settings.
func Open(cfg config.DBConfig) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN}), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Client{conn: conn}, nil
}

// GormConfig is shared by the Postgres client and test databases.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
		TranslateError: true,
	}
}

// New wraps an already opened connection.
func New(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

// DB returns the underlying GORM connection bound to ctx.
func (c *Client) DB(ctx context.Context) *gorm.DB {
	return c.conn.WithContext(ctx)
}

// WithTx runs fn inside a transaction. A nil opts uses the driver default
// isolation level. fn must use tx for every query.
func (c *Client) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *gorm.DB) error) error {
	if opts == nil {
		return c.conn.WithContext(ctx).Transaction(fn)
	}
	return c.conn.WithContext(ctx).Transaction(fn, opts)
}

func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&models.Tenant{},
		&models.User{},
		&models.Item{},
		&models.StockMovement{},
		&models.AuditCycle{},
		&models.AuditEntry{},
		&models.ActivityLog{},
	}
}

// AutoMigrate creates the schema from the models. Production databases are
// migrated with the SQL files under migrations/ instead.
func AutoMigrate(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
