package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCategoryStore persists the category index in Postgres.
type PostgresCategoryStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCategoryStore(pool *pgxpool.Pool) *PostgresCategoryStore {
	return &PostgresCategoryStore{pool: pool}
}

func (s *PostgresCategoryStore) Create(ctx context.Context, name, description string) (Category, error) {
	const q = `INSERT INTO categories (name, description)
	           VALUES ($1, $2)
	           RETURNING id, name, description, created_at`
	var c Category
	err := s.pool.QueryRow(ctx, q, name, description).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, ErrCategoryConflict
		}
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresCategoryStore) GetByID(ctx context.Context, id int64) (Category, error) {
	const q = `SELECT id, name, description, created_at FROM categories WHERE id = $1`
	var c Category
	err := s.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresCategoryStore) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *PostgresCategoryStore) List(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
