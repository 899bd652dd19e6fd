package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
)

const productColumns = `
	p.id, c.name AS category, p.name, p.price, p.description, p.stock, p.image`

// productRow mirrors the products table where description and image may be NULL.
type productRow struct {
	ID          int64           `db:"id"`
	Category    string          `db:"category"`
	Name        string          `db:"name"`
	Price       decimal.Decimal `db:"price"`
	Description *string         `db:"description"`
	Stock       int             `db:"stock"`
	Image       *string         `db:"image"`
}

func (r productRow) product() Product {
	return Product{
		ID:          r.ID,
		Category:    r.Category,
		Name:        r.Name,
		Price:       r.Price,
		Description: format.Deref(r.Description, ""),
		Stock:       r.Stock,
		Image:       format.Deref(r.Image, ""),
	}
}

// SQLStore reads the catalog from the relational categories/products schema.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ListCategories returns category names ordered by id.
func (s *SQLStore) ListCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	var names []string
	err := s.db.SelectContext(ctx, &names, `SELECT name FROM categories ORDER BY id`)
	logQuery(ctx, "categories.list", start, len(names), err)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

// ListProductsByCategory returns the products of the named category ordered by id.
func (s *SQLStore) ListProductsByCategory(ctx context.Context, name string) ([]Product, error) {
	start := time.Now()
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT`+productColumns+`
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE c.name = ?
		ORDER BY p.id`), name)
	logQuery(ctx, "products.by_category", start, len(rows), err, slog.String("category", name))
	if err != nil {
		return nil, fmt.Errorf("list products of %q: %w", name, err)
	}
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out, nil
}

// GetProductByID fetches a single product.
func (s *SQLStore) GetProductByID(ctx context.Context, id int64) (Product, error) {
	start := time.Now()
	var row productRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT`+productColumns+`
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		logQuery(ctx, "products.get", start, 0, nil, slog.Int64("product_id", id))
		return Product{}, ErrNotFound
	}
	logQuery(ctx, "products.get", start, 1, err, slog.Int64("product_id", id))
	if err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return row.product(), nil
}

// MinProductIDPerCategory groups products by category and returns the lowest id of each group.
func (s *SQLStore) MinProductIDPerCategory(ctx context.Context) ([]int64, error) {
	start := time.Now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT MIN(p.id) AS id
		FROM products p
		JOIN categories c ON p.category_id = c.id
		GROUP BY p.category_id
		ORDER BY MIN(p.id)`)
	logQuery(ctx, "products.min_per_category", start, len(ids), err)
	if err != nil {
		return nil, fmt.Errorf("best sellers: %w", err)
	}
	return ids, nil
}

func logQuery(ctx context.Context, op string, start time.Time, count int, err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("op", op),
		slog.Int("count", count),
		slog.Duration("duration", logger.Took(start)),
	}
	attrs = append(attrs, extra...)
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, "service.catalog", "catalog.query", attrs...)
		return
	}
	logger.Debug(ctx, "service.catalog", "catalog.query", attrs...)
}
