package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/pkg/database"
	apperrors "github.com/RiBaSoOrg/BasketService/pkg/errors"
)

// --- Test Helpers ---

func newTestRepo(t *testing.T) (*BasketRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewBasketRepository(mock)
	return repo, mock
}

func sampleBasket() *domain.Basket {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Basket{
		ID:        "basket-001",
		UserID:    "user-001",
		CreatedAt: now,
		UpdatedAt: now,
		Items: []domain.Item{
			{ID: "book-001", Name: "Dune", Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
			{ID: "book-002", Name: "Hyperion", Quantity: 1, UnitPrice: decimal.RequireFromString("14.50")},
		},
	}
}

// --- CreateBasket ---

func TestBasketRepository_CreateBasket_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	b := sampleBasket()

	mock.ExpectExec("INSERT INTO baskets").
		WithArgs(b.ID, b.UserID, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateBasket(context.Background(), b)
	require.NoError(t, err)
}

// --- GetBasket ---

func TestBasketRepository_GetBasket_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	b := sampleBasket()

	mock.ExpectQuery("SELECT id, user_id, created_at, updated_at").
		WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "created_at", "updated_at"}).
			AddRow(b.ID, b.UserID, b.CreatedAt, b.UpdatedAt))

	itemRows := pgxmock.NewRows([]string{"id", "name", "quantity", "unit_price"})
	for _, item := range b.Items {
		itemRows.AddRow(item.ID, item.Name, item.Quantity, item.UnitPrice)
	}
	mock.ExpectQuery("SELECT id, name, quantity, unit_price").
		WithArgs(b.ID).
		WillReturnRows(itemRows)

	got, err := repo.GetBasket(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.UserID, got.UserID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Dune", got.Items[0].Name)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}

func TestBasketRepository_GetBasket_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT id, user_id, created_at, updated_at").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBasket(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBasketRepository_GetBasket_EmptyItems(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	b := sampleBasket()

	mock.ExpectQuery("SELECT id, user_id, created_at, updated_at").
		WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "created_at", "updated_at"}).
			AddRow(b.ID, b.UserID, b.CreatedAt, b.UpdatedAt))

	mock.ExpectQuery("SELECT id, name, quantity, unit_price").
		WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "quantity", "unit_price"}))

	got, err := repo.GetBasket(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

// --- BasketExists ---

func TestBasketRepository_BasketExists(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("basket-001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.BasketExists(context.Background(), "basket-001")
	require.NoError(t, err)
	assert.True(t, exists)
}

// --- DeleteBasket ---

func TestBasketRepository_DeleteBasket_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("DELETE FROM baskets").
		WithArgs("basket-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.DeleteBasket(context.Background(), "basket-001")
	require.NoError(t, err)
}

func TestBasketRepository_DeleteBasket_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("DELETE FROM baskets").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteBasket(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- GetBasketIDByUser ---

func TestBasketRepository_GetBasketIDByUser_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT id").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("basket-001"))

	id, err := repo.GetBasketIDByUser(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Equal(t, "basket-001", id)
}

func TestBasketRepository_GetBasketIDByUser_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT id").
		WithArgs("user-without-basket").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBasketIDByUser(context.Background(), "user-without-basket")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- GetItem ---

func TestBasketRepository_GetItem_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	price := decimal.RequireFromString("9.99")
	mock.ExpectQuery("SELECT id, name, quantity, unit_price").
		WithArgs("basket-001", "book-001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "quantity", "unit_price"}).
			AddRow("book-001", "Dune", 2, price))

	item, err := repo.GetItem(context.Background(), "basket-001", "book-001")
	require.NoError(t, err)
	assert.Equal(t, "Dune", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(price))
}

func TestBasketRepository_GetItem_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT id, name, quantity, unit_price").
		WithArgs("basket-001", "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetItem(context.Background(), "basket-001", "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- InsertItem ---

func TestBasketRepository_InsertItem_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	item := &domain.Item{ID: "book-001", Name: "Dune", Quantity: 1, UnitPrice: decimal.RequireFromString("9.99")}

	mock.ExpectExec("INSERT INTO basket_items").
		WithArgs("basket-001", item.ID, item.Name, item.Quantity, item.UnitPrice).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertItem(context.Background(), "basket-001", item)
	require.NoError(t, err)
}

func TestBasketRepository_InsertItem_Conflict(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	item := &domain.Item{ID: "book-001", Name: "Dune", Quantity: 1, UnitPrice: decimal.RequireFromString("9.99")}

	mock.ExpectExec("INSERT INTO basket_items").
		WithArgs("basket-001", item.ID, item.Name, item.Quantity, item.UnitPrice).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.InsertItem(context.Background(), "basket-001", item)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

// --- IncrementItemQuantity ---

func TestBasketRepository_IncrementItemQuantity_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE basket_items").
		WithArgs("basket-001", "book-001", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	found, err := repo.IncrementItemQuantity(context.Background(), "basket-001", "book-001", 3)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBasketRepository_IncrementItemQuantity_Absent(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE basket_items").
		WithArgs("basket-001", "missing", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	found, err := repo.IncrementItemQuantity(context.Background(), "basket-001", "missing", 3)
	require.NoError(t, err)
	assert.False(t, found)
}

// --- DecrementItemQuantity ---

func TestBasketRepository_DecrementItemQuantity_PartialRemainder(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity FROM basket_items").
		WithArgs("basket-001", "book-001").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(3))
	mock.ExpectExec("UPDATE basket_items").
		WithArgs("basket-001", "book-001", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	remaining, err := repo.DecrementItemQuantity(context.Background(), "basket-001", "book-001", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestBasketRepository_DecrementItemQuantity_ToZeroDeletesRow(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity FROM basket_items").
		WithArgs("basket-001", "book-001").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectExec("DELETE FROM basket_items").
		WithArgs("basket-001", "book-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	remaining, err := repo.DecrementItemQuantity(context.Background(), "basket-001", "book-001", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestBasketRepository_DecrementItemQuantity_ExceedsQuantity(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity FROM basket_items").
		WithArgs("basket-001", "book-001").
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.DecrementItemQuantity(context.Background(), "basket-001", "book-001", 5)
	require.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestBasketRepository_DecrementItemQuantity_ItemAbsent(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT quantity FROM basket_items").
		WithArgs("basket-001", "missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.DecrementItemQuantity(context.Background(), "basket-001", "missing", 1)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpdateItemPrice ---

func TestBasketRepository_UpdateItemPrice_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	price := decimal.RequireFromString("12.00")
	mock.ExpectExec("UPDATE basket_items").
		WithArgs("basket-001", "book-001", price).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateItemPrice(context.Background(), "basket-001", "book-001", price)
	require.NoError(t, err)
}

func TestBasketRepository_UpdateItemPrice_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	price := decimal.RequireFromString("12.00")
	mock.ExpectExec("UPDATE basket_items").
		WithArgs("basket-001", "missing", price).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateItemPrice(context.Background(), "basket-001", "missing", price)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpsertItem ---

func TestBasketRepository_UpsertItem(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	item := &domain.Item{ID: "book-001", Name: "Dune", Quantity: 4, UnitPrice: decimal.RequireFromString("9.99")}

	mock.ExpectExec("INSERT INTO basket_items").
		WithArgs("basket-001", item.ID, item.Name, item.Quantity, item.UnitPrice).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.UpsertItem(context.Background(), "basket-001", item)
	require.NoError(t, err)
}

// --- Error passthrough ---

func TestBasketRepository_CreateBasket_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	b := sampleBasket()
	mock.ExpectExec("INSERT INTO baskets").
		WithArgs(b.ID, b.UserID, b.CreatedAt, b.UpdatedAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.CreateBasket(context.Background(), b)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
