package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	"github.com/smallbiznis/rentalops/internal/config"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&settingdomain.Setting{},
		&parkdomain.Park{},
		&degressiveratedomain.DegressiveRate{},
		&degressiveratedomain.Tier{},
		&taxdomain.Tax{},
		&taxdomain.Component{},
		&materialdomain.Material{},
		&materialdomain.MaterialUnit{},
		&bookingdomain.Event{},
		&bookingdomain.EventMaterial{},
		&billingdomain.Document{},
		&billingdomain.DocumentMaterial{},
		&inventorydomain.Inventory{},
		&inventorydomain.InventoryMaterial{},
		&inventorydomain.InventoryMaterialUnit{},
	}
}

// Run brings the schema up to date. Postgres uses the versioned SQL files;
// the other dialects fall back to gorm AutoMigrate when enabled.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	dialect := strings.ToLower(strings.TrimSpace(cfg.DBType))
	if dialect == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("type", dialect), zap.String("source", migrationsDir))
		return nil
	}

	if !cfg.DBAutoMigrate {
		log.Warn("auto migrate disabled, schema left untouched", zap.String("type", dialect))
		return nil
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("schema migrated", zap.String("type", dialect), zap.String("source", "automigrate"))
	return nil
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}
