package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in dir of fsys.
func Migrate(ctx context.Context, url string, fsys fs.FS, dir string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("Postgres - Migrate - sql.Open: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(fsys)

	err = goose.SetDialect("postgres")
	if err != nil {
		return fmt.Errorf("Postgres - Migrate - goose.SetDialect: %w", err)
	}

	err = goose.UpContext(ctx, db, dir)
	if err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("Postgres - Migrate - goose.UpContext: %w", err)
	}

	return nil
}
