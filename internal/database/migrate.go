// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mpostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrationsDir はエンジンごとの埋め込みマイグレーションディレクトリを返す。
func migrationsDir(engine Engine) string {
	return "migrations/" + string(engine)
}

// NewMigrator は既存のDB接続に対するmigrateインスタンスを生成する。
// SQLiteはストアと同じ単一接続を共有する必要があるため、URL形式ではなく
// *sql.DBを受け取る。
func NewMigrator(db *sql.DB, engine Engine) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, migrationsDir(engine))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	switch engine {
	case EngineSQLite:
		d, err := msqlite.WithInstance(db, &msqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, "sqlite", d)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return m, nil

	case EnginePostgres:
		d, err := mpostgres.WithInstance(db, &mpostgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, "postgres", d)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported database engine: %s", engine)
	}
}

// RunMigrations はすべての未適用マイグレーションを適用する。
// テーブルは初回起動時にここで作成される。すでに最新の場合はエラーなしで返る。
func RunMigrations(db *sql.DB, engine Engine) error {
	m, err := NewMigrator(db, engine)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
