// Package database はデータベース接続とスキーマのマイグレーションを提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// スキーマ定義はバイナリに埋め込み、distrolessイメージ単体でmigrateを実行できるようにする。
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion は適用済みスキーマのバージョン。
type SchemaVersion struct {
	Version uint
	Dirty   bool // 前回のマイグレーションが途中で失敗した
	Applied bool // 1つでも適用済みか
}

// NewMigrator は埋め込みSQLを読むmigrateインスタンスを生成する。
// 呼び出し側はcloseMigratorで閉じること。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("failed to close migrator",
			slog.Any("source_error", srcErr),
			slog.Any("database_error", dbErr),
		)
	}
}

// RunMigrations は未適用のマイグレーションをすべて適用する。最新であれば何もしない。
func RunMigrations(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackMigrations は直近のマイグレーションをsteps件だけ巻き戻す。
func RollbackMigrations(databaseURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive: %d", steps)
	}

	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back %d migration(s): %w", steps, err)
	}
	return nil
}

// CurrentVersion は適用済みスキーマのバージョンを返す。未適用の場合はApplied=falseを返す。
func CurrentVersion(databaseURL string) (SchemaVersion, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion{Version: version, Dirty: dirty, Applied: true}, nil
}
