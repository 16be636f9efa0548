package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coursework/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var productRowColumns = []string{"id", "name", "description", "price", "image", "stock", "attributes", "created_at", "updated_at"}

// setupProductTestRepository creates a product repository with a mock database
func setupProductTestRepository(t *testing.T) (*productRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewProductRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestProductRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		product       *models.Product
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name:    "success with attributes",
			product: &models.Product{Name: "Mug", Price: 9.5, Stock: 3, Attributes: map[string]any{"color": "red"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO products`).
					WithArgs("Mug", "", 9.5, "", 3, `{"color":"red"}`).
					WillReturnResult(sqlmock.NewResult(11, 1))
				mock.ExpectQuery(`SELECT id, name, description, price, image, stock, attributes, created_at, updated_at FROM products WHERE id = \?`).
					WithArgs(11).
					WillReturnRows(sqlmock.NewRows(productRowColumns).
						AddRow(11, "Mug", "", 9.5, "", 3, `{"color":"red"}`, now, now))
			},
		},
		{
			name:    "success without attributes stores NULL",
			product: &models.Product{Name: "Mug", Price: 9.5},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO products`).
					WithArgs("Mug", "", 9.5, "", 0, nil).
					WillReturnResult(sqlmock.NewResult(11, 1))
				mock.ExpectQuery(`FROM products WHERE id = \?`).
					WithArgs(11).
					WillReturnRows(sqlmock.NewRows(productRowColumns).
						AddRow(11, "Mug", "", 9.5, "", 0, nil, now, now))
			},
		},
		{
			name:    "insert error",
			product: &models.Product{Name: "Mug"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO products`).WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProductTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.product)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 11, tt.product.ID)
				assert.Equal(t, now, tt.product.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products WHERE id = \?`).
					WithArgs(4).
					WillReturnRows(sqlmock.NewRows(productRowColumns).
						AddRow(4, "Lamp", "Desk lamp", 25.0, "https://img.test/lamp.png", 10, `{"watts":40}`, now, now))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products WHERE id = \?`).
					WithArgs(4).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrProductNotFound,
		},
		{
			name: "corrupt attributes",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products WHERE id = \?`).
					WithArgs(4).
					WillReturnRows(sqlmock.NewRows(productRowColumns).
						AddRow(4, "Lamp", "", 25.0, "", 10, `{not json`, now, now))
			},
			expectedError: errors.New("failed to decode product attributes"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProductTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			product, err := repo.GetByID(context.Background(), 4)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Nil(t, product)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Lamp", product.Name)
				assert.Equal(t, 25.0, product.Price)
				assert.Equal(t, float64(40), product.Attributes["watts"])
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_GetAll(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		filter        models.ProductListFilter
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name:   "no search",
			filter: models.ProductListFilter{Page: 1, Count: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products ORDER BY created_at DESC, id DESC LIMIT \? OFFSET \?`).
					WithArgs(2, 0).
					WillReturnRows(sqlmock.NewRows(productRowColumns).
						AddRow(2, "Lamp", "", 25.0, "", 1, nil, now, now).
						AddRow(1, "Mug", "", 9.5, "", 3, nil, now, now))
			},
			expectedCount: 2,
		},
		{
			name:   "search second page",
			filter: models.ProductListFilter{Page: 2, Count: 5, Search: "mug"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products WHERE name LIKE \? ORDER BY`).
					WithArgs("%mug%", 5, 5).
					WillReturnRows(sqlmock.NewRows(productRowColumns))
			},
			expectedCount: 0,
		},
		{
			name:   "query error",
			filter: models.ProductListFilter{Page: 1, Count: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM products`).WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name:   "rows error",
			filter: models.ProductListFilter{Page: 1, Count: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(productRowColumns).
					AddRow(1, "Mug", "", 9.5, "", 3, nil, now, now).
					RowError(0, errors.New("row error"))
				mock.ExpectQuery(`FROM products`).WithArgs(2, 0).WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProductTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			products, err := repo.GetAll(context.Background(), tt.filter)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Len(t, products, tt.expectedCount)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_Update(t *testing.T) {
	repo, mock, cleanup := setupProductTestRepository(t)
	defer cleanup()

	product := &models.Product{Name: "Mug", Description: "Large", Price: 12, Stock: 1}

	mock.ExpectExec(`UPDATE products\s+SET name = \?, description = \?, price = \?, image = \?, stock = \?, attributes = \?\s+WHERE id = \?`).
		WithArgs("Mug", "Large", 12.0, "", 1, nil, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products`).
		WithArgs("Mug", "Large", 12.0, "", 1, nil, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Update(context.Background(), 8, product))
	assert.ErrorIs(t, repo.Update(context.Background(), 9, product), models.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupProductTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM products WHERE id = \?`).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM products WHERE id = \?`).
		WithArgs(9).
		WillReturnError(errors.New("database error"))

	assert.NoError(t, repo.Delete(context.Background(), 8))

	err := repo.Delete(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete product")
	assert.NoError(t, mock.ExpectationsWereMet())
}
