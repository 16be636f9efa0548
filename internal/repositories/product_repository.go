package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, name, description, price, image, stock, attributes, created_at, updated_at`

// Create inserts a new product and fills its ID and timestamps
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	attributes, err := marshalAttributes(product.Attributes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, description, price, image, stock, attributes)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Image, product.Stock, attributes)
	if err != nil {
		r.logger.Error("failed to create product", zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	created, err := r.GetByID(ctx, int(id))
	if err != nil {
		return err
	}
	*product = *created
	return nil
}

// GetByID retrieves a product by its ID
func (r *productRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		r.logger.Error("failed to query product by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// GetAll retrieves a page of products, newest first, optionally filtered by name
func (r *productRepository) GetAll(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any

	if filter.Search != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Count, pageOffset(filter.Page, filter.Count))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query products", zap.Error(err))
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("failed to scan product", zap.Error(err))
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// Update replaces the mutable fields of a product
func (r *productRepository) Update(ctx context.Context, id int, product *models.Product) error {
	attributes, err := marshalAttributes(product.Attributes)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, image = ?, stock = ?, attributes = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Image, product.Stock, attributes, id)
	if err != nil {
		r.logger.Error("failed to update product", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to update product: %w", err)
	}

	return requireAffected(result, models.ErrProductNotFound)
}

// Delete removes a product by its ID
func (r *productRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete product", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireAffected(result, models.ErrProductNotFound)
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	var attributes []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Image,
		&product.Stock,
		&attributes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &product.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode product attributes: %w", err)
		}
	}

	return &product, nil
}

// marshalAttributes encodes attributes for a JSON column, nil stays NULL
func marshalAttributes(attributes map[string]any) (any, error) {
	if len(attributes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product attributes: %w", err)
	}
	return string(data), nil
}
