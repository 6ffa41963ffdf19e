package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gameradar/internal/core"

	_ "modernc.org/sqlite"
)

var _ Gateway = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One writer at a time; Save runs as a single transaction.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements Gateway. An empty categories table means nothing was saved.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Store, bool, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return core.Store{}, false, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		return core.Store{}, false, nil
	}

	games, err := r.queries.ListGames(ctx)
	if err != nil {
		return core.Store{}, false, fmt.Errorf("list games: %w", err)
	}

	byCategory := make(map[string][]core.Game, len(cats))
	for _, g := range games {
		byCategory[g.CategoryID] = append(byCategory[g.CategoryID], core.Game{
			PlaceID:     g.PlaceID,
			UniverseID:  g.UniverseID,
			Name:        g.Name,
			URL:         g.Url,
			Thumbnail:   g.Thumbnail,
			LastUpdated: g.LastUpdated,
		})
	}

	st := core.Store{Categories: make([]core.Category, 0, len(cats))}
	for _, c := range cats {
		cat := core.NewCategory(c.ID, c.Name)
		if gs := byCategory[c.ID]; gs != nil {
			cat.Games = gs
		}
		st.Categories = append(st.Categories, cat)
	}

	slog.DebugContext(ctx, "Store loaded from SQLite",
		"categories", len(st.Categories),
		"games", len(games))

	return st, true, nil
}

// Save implements Gateway by replacing every row in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, st core.Store) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := r.queries.WithTx(tx)

	if err = q.DeleteAllGames(ctx); err != nil {
		return fmt.Errorf("clear games: %w", err)
	}
	if err = q.DeleteAllCategories(ctx); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for ci, c := range st.Categories {
		if err = q.InsertCategory(ctx, Category{ID: c.ID, Name: c.Name, Position: int64(ci)}); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
		for gi, g := range c.Games {
			err = q.InsertGame(ctx, Game{
				CategoryID:  c.ID,
				Position:    int64(gi),
				PlaceID:     g.PlaceID,
				UniverseID:  g.UniverseID,
				Name:        g.Name,
				Url:         g.URL,
				Thumbnail:   g.Thumbnail,
				LastUpdated: g.LastUpdated,
			})
			if err != nil {
				return fmt.Errorf("insert game %s: %w", g.PlaceID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Store saved to SQLite",
		"categories", len(st.Categories),
		"games", st.TotalGames())

	return nil
}

// GameCount returns the number of stored game rows.
func (r *SQLiteRepository) GameCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}
