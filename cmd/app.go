package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	authPostgres "github.com/frahmantamala/campaign-management/internal/auth/postgres"
	"github.com/frahmantamala/campaign-management/internal/campaign"
	campaignPostgres "github.com/frahmantamala/campaign-management/internal/campaign/postgres"
	"github.com/frahmantamala/campaign-management/internal/core/events"
	"github.com/frahmantamala/campaign-management/internal/invoice"
	invoicePostgres "github.com/frahmantamala/campaign-management/internal/invoice/postgres"
	"github.com/frahmantamala/campaign-management/internal/user"
	userPostgres "github.com/frahmantamala/campaign-management/internal/user/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Services is the wired application graph shared by server and CLI commands.
type Services struct {
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Bus       *events.EventBus
	Forwarder *events.AMQPForwarder

	Auth     *auth.Service
	User     *user.Service
	Campaign *campaign.Service
	Invoice  *invoice.Service
}

func buildServices(cfg *internal.Config, lg *slog.Logger) (*Services, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLogger(bus, lg)

	var fwd *events.AMQPForwarder
	if cfg.Events.AMQPURL != "" {
		fwd, err = events.DialAMQPForwarder(cfg.Events.AMQPURL, cfg.Events.Exchange, lg)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect event broker: %w", err)
		}
		fwd.Attach(bus, events.CampaignEventTypes...)
		lg.Info("forwarding campaign events", "exchange", cfg.Events.Exchange)
	}

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, cfg.Security.BCryptCost, lg)
	userService := user.NewService(userPostgres.NewUserRepository(gdb), lg)

	campaignService := campaign.NewService(
		campaignPostgres.NewCampaignRepository(gdb),
		userService,
		bus,
		lg,
		campaign.Options{
			MaxRows:             cfg.Upload.MaxRows,
			StrictCSV:           cfg.Upload.StrictCSV,
			AllowStatusReversal: cfg.Campaign.AllowStatusReversal,
			QueryTimeout:        cfg.Database.QueryTimeout,
		},
	)
	invoiceService := invoice.NewService(campaignService, invoicePostgres.NewInvoiceRepository(db), lg, cfg.Database.QueryTimeout)

	return &Services{
		DB:        db,
		Gorm:      gdb,
		Bus:       bus,
		Forwarder: fwd,
		Auth:      authService,
		User:      userService,
		Campaign:  campaignService,
		Invoice:   invoiceService,
	}, nil
}

// Close waits for in-flight event handlers, then releases the broker and
// database connections.
func (s *Services) Close(ctx context.Context, lg *slog.Logger) {
	if err := s.Bus.Drain(ctx); err != nil {
		lg.Warn("event handlers still running at shutdown", "error", err)
	}
	if s.Forwarder != nil {
		if err := s.Forwarder.Close(); err != nil {
			lg.Error("event broker close error", "error", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		lg.Error("database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
