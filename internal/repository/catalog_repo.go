package repository

import (
	"context"
	"database/sql"
	"fmt"

	"weighit/internal/models"
)

type CatalogSQLite struct {
	db *sql.DB
}

func NewCatalogSQLite(db *sql.DB) *CatalogSQLite { return &CatalogSQLite{db: db} }

// Sources returns active donation sources ordered by name.
func (r *CatalogSQLite) Sources(ctx context.Context) ([]models.Source, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sources WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FoodTypes returns active food types in display order.
func (r *CatalogSQLite) FoodTypes(ctx context.Context) ([]models.FoodType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, requires_temp, sort_order
		FROM food_types
		WHERE is_active = 1
		ORDER BY sort_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FoodType
	for rows.Next() {
		var ft models.FoodType
		if err := rows.Scan(&ft.Name, &ft.RequiresTemp, &ft.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

// SeedDefaults inserts the given sources and food types when the respective
// tables are empty. Safe to call on every startup.
func (r *CatalogSQLite) SeedDefaults(ctx context.Context, sources []models.Source, types []models.FoodType) error {
	var nSources int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&nSources); err != nil {
		return fmt.Errorf("count sources: %w", err)
	}
	if nSources == 0 {
		for _, s := range sources {
			if _, err := r.db.ExecContext(ctx,
				`INSERT OR IGNORE INTO sources (name) VALUES (?)`, s.Name); err != nil {
				return fmt.Errorf("seed source %q: %w", s.Name, err)
			}
		}
	}

	var nTypes int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM food_types`).Scan(&nTypes); err != nil {
		return fmt.Errorf("count food_types: %w", err)
	}
	if nTypes == 0 {
		for _, ft := range types {
			requiresTemp := 0
			if ft.RequiresTemp {
				requiresTemp = 1
			}
			if _, err := r.db.ExecContext(ctx, `
				INSERT OR IGNORE INTO food_types (name, requires_temp, sort_order)
				VALUES (?, ?, ?)
			`, ft.Name, requiresTemp, ft.SortOrder); err != nil {
				return fmt.Errorf("seed food type %q: %w", ft.Name, err)
			}
		}
	}
	return nil
}
