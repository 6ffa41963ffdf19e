package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Category struct {
	ID       string
	Name     string
	Position int64
}

type Game struct {
	CategoryID  string
	Position    int64
	PlaceID     string
	UniverseID  string
	Name        string
	Url         string
	Thumbnail   string
	LastUpdated string
}

const listCategories = `SELECT id, name, position FROM categories ORDER BY position ASC`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGames = `SELECT category_id, position, place_id, universe_id, name, url, thumbnail, last_updated
FROM games ORDER BY category_id ASC, position ASC`

func (q *Queries) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := q.db.QueryContext(ctx, listGames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Game
	for rows.Next() {
		var i Game
		if err := rows.Scan(
			&i.CategoryID,
			&i.Position,
			&i.PlaceID,
			&i.UniverseID,
			&i.Name,
			&i.Url,
			&i.Thumbnail,
			&i.LastUpdated,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countGames = `SELECT COUNT(*) FROM games`

func (q *Queries) CountGames(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countGames).Scan(&n)
	return n, err
}

const deleteAllGames = `DELETE FROM games`

func (q *Queries) DeleteAllGames(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllGames)
	return err
}

const deleteAllCategories = `DELETE FROM categories`

func (q *Queries) DeleteAllCategories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllCategories)
	return err
}

const insertCategory = `INSERT INTO categories (id, name, position, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

func (q *Queries) InsertCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.ID, arg.Name, arg.Position)
	return err
}

const insertGame = `INSERT INTO games (category_id, position, place_id, universe_id, name, url, thumbnail, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertGame(ctx context.Context, arg Game) error {
	_, err := q.db.ExecContext(ctx, insertGame,
		arg.CategoryID,
		arg.Position,
		arg.PlaceID,
		arg.UniverseID,
		arg.Name,
		arg.Url,
		arg.Thumbnail,
		arg.LastUpdated,
	)
	return err
}
