// Package db picks the access journal backend from configuration.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Revaldoo24/govai-platform/internal/config"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	mysqlp "github.com/Revaldoo24/govai-platform/internal/infra/db/mysql"
	pgp "github.com/Revaldoo24/govai-platform/internal/infra/db/postgres"
)

var ErrJournalDisabled = errors.New("journal driver not configured")

// OpenJournal connects the configured journal backend. The caller owns the
// returned *sql.DB.
func OpenJournal(ctx context.Context, cfg *config.Config) (journal.Repository, *sql.DB, error) {
	switch cfg.Journal.Driver {
	case "":
		return nil, nil, ErrJournalDisabled
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return mysqlp.NewJournalRepository(db), db, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return pgp.NewJournalRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported journal driver %q", cfg.Journal.Driver)
	}
}
