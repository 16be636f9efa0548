package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
)

const (
	maxProductNameLength = 255
	// products.price is DECIMAL(10, 2)
	maxProductPrice = 99999999.99
	maxProductStock = math.MaxInt32
)

// productService implements ProductService
type productService struct {
	productRepo ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo ProductRepository, logger *zap.Logger) *productService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetProducts returns a page of products
func (s *productService) GetProducts(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error) {
	filter.Page, filter.Count = normalizePage(filter.Page, filter.Count)
	filter.Search = strings.TrimSpace(filter.Search)
	return s.productRepo.GetAll(ctx, filter)
}

// GetProduct returns a single product
func (s *productService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// CreateProduct validates and stores a new product
func (s *productService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Int("productId", product.ID), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct validates and replaces a product, returning the stored version
func (s *productService) UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, id, product); err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(ctx, id)
}

// DeleteProduct deletes a product
func (s *productService) DeleteProduct(ctx context.Context, id int) error {
	return s.productRepo.Delete(ctx, id)
}

func productFromRequest(req *models.ProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxProductNameLength {
		return nil, models.NewValidationError("name", fmt.Sprintf("name must be at most %d characters", maxProductNameLength))
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, models.NewValidationError("price", "price must be a non-negative number")
	}
	if req.Price > maxProductPrice {
		return nil, models.NewValidationError("price", fmt.Sprintf("price must be at most %.2f", maxProductPrice))
	}
	if req.Stock < 0 {
		return nil, models.NewValidationError("stock", "stock must not be negative")
	}
	if req.Stock > maxProductStock {
		return nil, models.NewValidationError("stock", fmt.Sprintf("stock must be at most %d", maxProductStock))
	}

	return &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       math.Round(req.Price*100) / 100,
		Image:       strings.TrimSpace(req.Image),
		Stock:       req.Stock,
		Attributes:  req.Attributes,
	}, nil
}
