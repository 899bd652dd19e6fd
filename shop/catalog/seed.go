package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/core/logger"
)

// DemoCategories and DemoProducts describe a small cosmetics catalog for local runs.
var (
	DemoCategories = []string{"Skincare", "Makeup", "Haircare"}
	DemoProducts   = []Product{
		{Category: "Skincare", Name: "Hydrating Cream", Price: decimal.NewFromInt(50), Description: "Daily moisturizer for all skin types.", Stock: 12},
		{Category: "Skincare", Name: "Vitamin C Serum", Price: decimal.RequireFromString("89.90"), Description: "Brightening serum, 30 ml.", Stock: 5},
		{Category: "Makeup", Name: "Matte Lipstick", Price: decimal.NewFromInt(35), Description: "Long-lasting matte finish.", Stock: 20},
		{Category: "Makeup", Name: "Volume Mascara", Price: decimal.RequireFromString("42.50"), Description: "Waterproof, black.", Stock: 0},
		{Category: "Haircare", Name: "Repair Shampoo", Price: decimal.NewFromInt(28), Description: "For dry and damaged hair, 250 ml.", Stock: 8},
	}
)

// DemoSeeder inserts the demo catalog into an empty database. Existing rows are left untouched.
func DemoSeeder() bootstrap.Seeder {
	return bootstrap.SeederFunc("catalog.demo", seedDemo)
}

func seedDemo(ctx context.Context, db *sqlx.DB) error {
	var existing int
	if err := db.GetContext(ctx, &existing, `SELECT COUNT(*) FROM products`); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		logger.Info(ctx, "db.seed", "seed.skip",
			slog.String("status", "skip"),
			slog.Int("count", existing),
		)
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(DemoCategories))
	for _, name := range DemoCategories {
		var id int64
		err := tx.GetContext(ctx, &id, tx.Rebind(`
			INSERT INTO categories (name) VALUES (?)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`), name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		ids[name] = id
	}
	for _, p := range DemoProducts {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO products (category_id, name, price, description, stock, image)
			VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))`),
			ids[p.Category], p.Name, p.Price, p.Description, p.Stock, p.Image)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Info(ctx, "db.seed", "seed.done",
		slog.String("status", "ok"),
		slog.Int("count", len(DemoProducts)),
	)
	return nil
}
