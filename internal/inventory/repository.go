package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// StockRepository is the inventory ledger backed by products.stock. Every
// mutation is a single conditional UPDATE, so concurrent reservations on the
// same row serialize on the row lock and can never push stock below zero.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) ListAll(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stock
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var levels []domain.StockLevel
	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.ProductID, &level.Stock); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return levels, nil
}

func (r *StockRepository) GetStock(ctx context.Context, productID string) (*domain.StockLevel, error) {
	level := &domain.StockLevel{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, stock
		FROM products
		WHERE id = $1
	`, productID).Scan(&level.ProductID, &level.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return level, nil
}

func (r *StockRepository) Reserve(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidQuantity
	}

	var stock int
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`, productID, quantity).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: reserve %s: %w", domain.ErrPersistence, productID, err)
	}

	level, err := r.GetStock(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("%w: reserve %s: %w", domain.ErrPersistence, productID, err)
	}
	if level == nil {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	return level.Stock, fmt.Errorf("product %s has %d, requested %d: %w", productID, level.Stock, quantity, domain.ErrInsufficientStock)
}

// Release returns previously reserved units. It is only used to compensate a
// reservation made by a checkout that did not complete.
func (r *StockRepository) Release(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidQuantity
	}

	var stock int
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock
	`, productID, quantity).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("%w: release %s: %w", domain.ErrPersistence, productID, err)
	}

	return stock, nil
}
