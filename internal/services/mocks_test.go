package services

import (
	"context"
	"sync"

	"github.com/coursework/storefront/internal/models"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user                   *models.User
	users                  []models.User
	err                    error
	getByIDErr             error
	existsByEmailResult    bool
	existsByEmailError     error
	existsByUsernameResult bool
	existsByUsernameError  error

	created      *models.User
	updatedRole  models.Role
	deletedID    int
	lastFilter   models.UserListFilter
	updatedForID int
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	user.ID = 1
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	if m.user == nil {
		return nil, models.ErrUserNotFound
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil {
		return nil, models.ErrUserNotFound
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameError != nil {
		return false, m.existsByUsernameError
	}
	return m.existsByUsernameResult, nil
}

func (m *mockUserRepository) GetAll(ctx context.Context, filter models.UserListFilter) ([]models.User, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, userID int, role models.Role) error {
	if m.err != nil {
		return m.err
	}
	m.updatedForID = userID
	m.updatedRole = role
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID int) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = userID
	return nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	token          *models.UserToken
	err            error
	getErr         error
	updateTokenErr error
	deleted        []string
	stored         []string
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, userToken.Token)
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.token == nil {
		return nil, models.ErrTokenNotFound
	}
	return m.token, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	return m.updateTokenErr
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return m.err
}

// mockProductRepository is a mock implementation of ProductRepository
type mockProductRepository struct {
	product    *models.Product
	products   []models.Product
	err        error
	lastFilter models.ProductListFilter
	saved      *models.Product
}

func (m *mockProductRepository) Create(ctx context.Context, product *models.Product) error {
	if m.err != nil {
		return m.err
	}
	product.ID = 10
	m.saved = product
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, models.ErrProductNotFound
	}
	return m.product, nil
}

func (m *mockProductRepository) GetAll(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockProductRepository) Update(ctx context.Context, id int, product *models.Product) error {
	if m.err != nil {
		return m.err
	}
	m.saved = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int) error {
	return m.err
}

// mockOrderRepository is a mock implementation of OrderRepository
type mockOrderRepository struct {
	order      *models.Order
	orders     []models.Order
	err        error
	placeErr   error
	updateErr  error
	lastFilter models.OrderListFilter
	placed     *models.Order
	deletedID  int
}

func (m *mockOrderRepository) Place(ctx context.Context, order *models.Order) error {
	if m.placeErr != nil {
		return m.placeErr
	}
	order.ID = 42
	var total float64
	for i := range order.Items {
		order.Items[i].UnitPrice = 10
		total += 10 * float64(order.Items[i].Quantity)
	}
	order.Total = total
	m.placed = order
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.order == nil {
		return nil, models.ErrOrderNotFound
	}
	return m.order, nil
}

func (m *mockOrderRepository) GetAll(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *models.Order, to models.OrderStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	order.Status = to
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

// mockTaskEnqueuer records scheduled e-mails
type mockTaskEnqueuer struct {
	mu            sync.Mutex
	err           error
	welcome       []string
	confirmations []int
}

func (m *mockTaskEnqueuer) EnqueueWelcomeEmail(ctx context.Context, email, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, email)
	return m.err
}

func (m *mockTaskEnqueuer) EnqueueOrderConfirmation(ctx context.Context, email string, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, order.ID)
	return m.err
}

// mockEventPublisher records published events
type mockEventPublisher struct {
	err    error
	events []models.OrderEvent
}

func (m *mockEventPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	m.events = append(m.events, event)
	return m.err
}
