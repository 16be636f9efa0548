package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/coursework/storefront/internal/models"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
	adminID    = 1
	userID     = 2
)

// stubTokens accepts adminToken and userToken
type stubTokens struct{}

func (stubTokens) ValidateAccessToken(token string) (int, int, error) {
	switch token {
	case adminToken:
		return adminID, int(models.RoleAdmin), nil
	case userToken:
		return userID, int(models.RoleUser), nil
	}
	return 0, 0, errors.New("invalid token")
}

// newRequest builds a request with an optional JSON body and bearer token
func newRequest(method, target, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	resp         *models.AuthResponse
	user         *models.User
	err          error
	refreshToken string
	loggedOut    string
	meID         int
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	return m.resp, m.err
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	return m.resp, m.err
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	m.refreshToken = refreshToken
	return m.resp, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	m.loggedOut = refreshToken
	return m.err
}

func (m *mockAuthService) Me(ctx context.Context, userID int) (*models.User, error) {
	m.meID = userID
	return m.user, m.err
}

// mockUserService is a mock implementation of UserService
type mockUserService struct {
	users      []models.User
	err        error
	filter     models.UserListFilter
	actorID    int
	targetID   int
	targetRole string
	called     string
}

func (m *mockUserService) GetUsers(ctx context.Context, filter models.UserListFilter) ([]models.User, error) {
	m.called = "GetUsers"
	m.filter = filter
	return m.users, m.err
}

func (m *mockUserService) UpdateUserRole(ctx context.Context, actorID, userID int, role string) error {
	m.called = "UpdateUserRole"
	m.actorID, m.targetID, m.targetRole = actorID, userID, role
	return m.err
}

func (m *mockUserService) DeleteUser(ctx context.Context, actorID, userID int) error {
	m.called = "DeleteUser"
	m.actorID, m.targetID = actorID, userID
	return m.err
}

// mockProductService is a mock implementation of ProductService
type mockProductService struct {
	product  *models.Product
	products []models.Product
	err      error
	filter   models.ProductListFilter
	id       int
	called   string
}

func (m *mockProductService) GetProducts(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error) {
	m.called = "GetProducts"
	m.filter = filter
	return m.products, m.err
}

func (m *mockProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	m.called, m.id = "GetProduct", id
	return m.product, m.err
}

func (m *mockProductService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	m.called = "CreateProduct"
	return m.product, m.err
}

func (m *mockProductService) UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, error) {
	m.called, m.id = "UpdateProduct", id
	return m.product, m.err
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id int) error {
	m.called, m.id = "DeleteProduct", id
	return m.err
}

// mockOrderService is a mock implementation of OrderService
type mockOrderService struct {
	order  *models.Order
	orders []models.Order
	err    error
	userID int
	role   models.Role
	id     int
	status models.OrderStatus
	filter models.OrderListFilter
	called string
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID int, req *models.CreateOrderRequest) (*models.Order, error) {
	m.called, m.userID = "CreateOrder", userID
	return m.order, m.err
}

func (m *mockOrderService) GetMyOrders(ctx context.Context, userID, page, count int) ([]models.Order, error) {
	m.called, m.userID = "GetMyOrders", userID
	return m.orders, m.err
}

func (m *mockOrderService) GetOrders(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error) {
	m.called, m.filter = "GetOrders", filter
	return m.orders, m.err
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID int, role models.Role, orderID int) (*models.Order, error) {
	m.called, m.userID, m.role, m.id = "GetOrder", userID, role, orderID
	return m.order, m.err
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID int, status models.OrderStatus) (*models.Order, error) {
	m.called, m.id, m.status = "UpdateOrderStatus", orderID, status
	return m.order, m.err
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, orderID int) error {
	m.called, m.id = "DeleteOrder", orderID
	return m.err
}
