// Package postgres keeps an archive of crawled recipes in a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store"
)

const defaultTable = "recipes"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Store implements store.RecipeStore on one table keyed by recipe URL.
type Store struct {
	pool  querier
	table string
}

// New connects to Postgres and creates the table if needed.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Migrate creates the recipe table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	url                   TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	rating                SMALLINT NOT NULL,
	calories              DOUBLE PRECISION NOT NULL,
	grams_of_carbohydrate DOUBLE PRECISION NOT NULL,
	grams_of_fat          DOUBLE PRECISION NOT NULL,
	grams_of_fiber        DOUBLE PRECISION NOT NULL,
	grams_of_net_carbs    DOUBLE PRECISION NOT NULL,
	grams_of_protein      DOUBLE PRECISION NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Save replaces the table contents with recipes in one transaction. A URL
// listed twice keeps its last row.
func (s *Store) Save(ctx context.Context, recipes []recipe.Recipe) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := s.replace(ctx, tx, recipes); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, tx pgx.Tx, recipes []recipe.Recipe) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	url,
	name,
	rating,
	calories,
	grams_of_carbohydrate,
	grams_of_fat,
	grams_of_fiber,
	grams_of_net_carbs,
	grams_of_protein
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)
ON CONFLICT (url) DO UPDATE SET
	name = EXCLUDED.name,
	rating = EXCLUDED.rating,
	calories = EXCLUDED.calories,
	grams_of_carbohydrate = EXCLUDED.grams_of_carbohydrate,
	grams_of_fat = EXCLUDED.grams_of_fat,
	grams_of_fiber = EXCLUDED.grams_of_fiber,
	grams_of_net_carbs = EXCLUDED.grams_of_net_carbs,
	grams_of_protein = EXCLUDED.grams_of_protein,
	updated_at = now()`, s.table)

	for _, r := range recipes {
		n := r.NutritionFacts
		args := []any{
			r.URL,
			r.Name,
			int(r.Rating),
			n.Calories,
			n.GramsOfCarbohydrate,
			n.GramsOfFat,
			n.GramsOfFiber,
			n.GramsOfNetCarbs,
			n.GramsOfProtein,
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert recipe %s: %w", r.URL, err)
		}
	}
	return nil
}

// Load returns every archived recipe ordered by URL.
func (s *Store) Load(ctx context.Context) ([]recipe.Recipe, error) {
	query := fmt.Sprintf(`
SELECT url, name, rating, calories, grams_of_carbohydrate, grams_of_fat,
	grams_of_fiber, grams_of_net_carbs, grams_of_protein
FROM %s
ORDER BY url`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var (
		recipes []recipe.Recipe
		errs    []error
	)
	for rows.Next() {
		var (
			r      recipe.Recipe
			rating int
		)
		n := &r.NutritionFacts
		if err := rows.Scan(
			&r.URL,
			&r.Name,
			&rating,
			&n.Calories,
			&n.GramsOfCarbohydrate,
			&n.GramsOfFat,
			&n.GramsOfFiber,
			&n.GramsOfNetCarbs,
			&n.GramsOfProtein,
		); err != nil {
			return nil, &store.SchemaError{Source: s.table, Cause: fmt.Errorf("scan: %w", err)}
		}
		r.Rating = recipe.Rating(rating)
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.URL, err))
			continue
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.table, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, &store.SchemaError{Source: s.table, Cause: err}
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("table %s: %w", s.table, store.ErrNotFound)
	}
	return recipes, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
