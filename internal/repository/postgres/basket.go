package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/pkg/database"
	apperrors "github.com/RiBaSoOrg/BasketService/pkg/errors"
)

// BasketRepository implements repository.BasketRepository using PostgreSQL.
type BasketRepository struct {
	pool database.DBTX
}

// NewBasketRepository creates a new PostgreSQL-backed basket repository.
func NewBasketRepository(pool database.DBTX) *BasketRepository {
	return &BasketRepository{pool: pool}
}

// CreateBasket inserts a new, empty basket.
func (r *BasketRepository) CreateBasket(ctx context.Context, b *domain.Basket) error {
	query := `
		INSERT INTO baskets (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, b.ID, b.UserID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert basket: %w", err)
	}

	return nil
}

// GetBasket retrieves a basket with all its items.
func (r *BasketRepository) GetBasket(ctx context.Context, basketID string) (*domain.Basket, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM baskets
		WHERE id = $1`

	var b domain.Basket
	err := r.pool.QueryRow(ctx, query, basketID).Scan(
		&b.ID,
		&b.UserID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan basket: %w", err)
	}

	items, err := r.loadItems(ctx, basketID)
	if err != nil {
		return nil, err
	}
	b.Items = items

	return &b, nil
}

// BasketExists reports whether a basket with the given ID exists.
func (r *BasketRepository) BasketExists(ctx context.Context, basketID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM baskets WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, basketID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check basket exists: %w", err)
	}

	return exists, nil
}

// DeleteBasket removes a basket; items go with it via ON DELETE CASCADE.
func (r *BasketRepository) DeleteBasket(ctx context.Context, basketID string) error {
	query := `DELETE FROM baskets WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, basketID)
	if err != nil {
		return fmt.Errorf("delete basket: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// GetBasketIDByUser returns the ID of the user's most recently created basket.
func (r *BasketRepository) GetBasketIDByUser(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT id
		FROM baskets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var id string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("scan basket id for user: %w", err)
	}

	return id, nil
}

// GetItem retrieves a single line item.
func (r *BasketRepository) GetItem(ctx context.Context, basketID, itemID string) (*domain.Item, error) {
	query := `
		SELECT id, name, quantity, unit_price
		FROM basket_items
		WHERE basket_id = $1 AND id = $2`

	var item domain.Item
	err := r.pool.QueryRow(ctx, query, basketID, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.Quantity,
		&item.UnitPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan basket item: %w", err)
	}

	return &item, nil
}

// InsertItem adds a new line item to a basket.
func (r *BasketRepository) InsertItem(ctx context.Context, basketID string, item *domain.Item) error {
	query := `
		INSERT INTO basket_items (basket_id, id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, basketID, item.ID, item.Name, item.Quantity, item.UnitPrice)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("insert basket item: %w", err)
	}

	return nil
}

// IncrementItemQuantity atomically adds amount to an existing item's quantity.
// A single guarded UPDATE keeps two racing increments from losing an update.
func (r *BasketRepository) IncrementItemQuantity(ctx context.Context, basketID, itemID string, amount int) (bool, error) {
	query := `
		UPDATE basket_items
		SET quantity = quantity + $3
		WHERE basket_id = $1 AND id = $2`

	ct, err := r.pool.Exec(ctx, query, basketID, itemID, amount)
	if err != nil {
		return false, fmt.Errorf("increment item quantity: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// DecrementItemQuantity subtracts amount from an item's quantity inside a
// transaction, deleting the row when the remainder is exactly zero. The
// SELECT ... FOR UPDATE serializes racing decrements on the same item.
func (r *BasketRepository) DecrementItemQuantity(ctx context.Context, basketID, itemID string, amount int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var quantity int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM basket_items WHERE basket_id = $1 AND id = $2 FOR UPDATE`,
		basketID, itemID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("lock basket item: %w", err)
	}

	if amount > quantity {
		return 0, apperrors.ErrInvalidAmount
	}

	remaining := quantity - amount
	if remaining == 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM basket_items WHERE basket_id = $1 AND id = $2`,
			basketID, itemID,
		)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE basket_items SET quantity = $3 WHERE basket_id = $1 AND id = $2`,
			basketID, itemID, remaining,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("decrement item quantity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return remaining, nil
}

// UpdateItemPrice sets a new unit price on an existing item.
func (r *BasketRepository) UpdateItemPrice(ctx context.Context, basketID, itemID string, price decimal.Decimal) error {
	query := `
		UPDATE basket_items
		SET unit_price = $3
		WHERE basket_id = $1 AND id = $2`

	ct, err := r.pool.Exec(ctx, query, basketID, itemID, price)
	if err != nil {
		return fmt.Errorf("update item price: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// UpsertItem inserts a line item or overwrites an existing one's quantity and
// price. The administrative sync feed is authoritative, so it replaces rather
// than increments.
func (r *BasketRepository) UpsertItem(ctx context.Context, basketID string, item *domain.Item) error {
	query := `
		INSERT INTO basket_items (basket_id, id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (basket_id, id)
		DO UPDATE SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price`

	_, err := r.pool.Exec(ctx, query, basketID, item.ID, item.Name, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("upsert basket item: %w", err)
	}

	return nil
}

// loadItems retrieves all items belonging to a given basket.
func (r *BasketRepository) loadItems(ctx context.Context, basketID string) ([]domain.Item, error) {
	query := `
		SELECT id, name, quantity, unit_price
		FROM basket_items
		WHERE basket_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, basketID)
	if err != nil {
		return nil, fmt.Errorf("query basket items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("scan basket item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate basket item rows: %w", err)
	}

	return items, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
