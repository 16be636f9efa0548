package services

import (
	"context"

	"github.com/coursework/storefront/internal/models"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is filled with the generated ID on success.
	//
	// If a user with the same email or username exists, models.ErrUserAlreadyExists is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method GetByEmailOrUsername retrieves a user by email or username.
	//
	// If user with such email or username does not exist, models.ErrUserNotFound will be returned together with "nil" value.
	GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method GetAll retrieves a page of users.
	//
	// "filter" parameter narrows the list by role and by a search term matched against email and username.
	GetAll(ctx context.Context, filter models.UserListFilter) ([]models.User, error)
	// Method UpdateRole changes the role of a user.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	UpdateRole(ctx context.Context, userID int, role models.Role) error
	// Method Delete deletes a user with all their tokens and orders.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	Delete(ctx context.Context, userID int) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create stores a refresh token for a user.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a stored refresh token.
	//
	// If the token is not stored, models.ErrTokenNotFound will be returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces a stored refresh token with a new one.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken removes a stored refresh token. Removing a missing token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

// ProductRepository is the interface that wraps methods for Product table data access
type ProductRepository interface {
	// Method Create inserts a product and fills its ID and timestamps.
	Create(ctx context.Context, product *models.Product) error
	// Method GetByID retrieves a product.
	//
	// If product with such ID does not exist, models.ErrProductNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Product, error)
	// Method GetAll retrieves a page of products, newest first.
	GetAll(ctx context.Context, filter models.ProductListFilter) ([]models.Product, error)
	// Method Update replaces the mutable fields of a product.
	Update(ctx context.Context, id int, product *models.Product) error
	// Method Delete deletes a product.
	Delete(ctx context.Context, id int) error
}

// OrderRepository is the interface that wraps methods for Order table data access
type OrderRepository interface {
	// Method Place stores a new order, pricing its items from the product rows and decrementing stock.
	//
	// models.ErrProductNotFound or models.ErrInsufficientStock are returned when an item can not be fulfilled.
	// Nothing is written in that case.
	Place(ctx context.Context, order *models.Order) error
	// Method GetByID retrieves an order.
	//
	// If order with such ID does not exist, models.ErrOrderNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Order, error)
	// Method GetAll retrieves a page of orders, newest first.
	GetAll(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error)
	// Method UpdateStatus moves an order from its current status to "to".
	//
	// models.ErrInvalidStatusTransition is returned when the stored status no longer matches order.Status.
	UpdateStatus(ctx context.Context, order *models.Order, to models.OrderStatus) error
	// Method Delete deletes an order.
	Delete(ctx context.Context, id int) error
}

// TaskEnqueuer is the interface for scheduling background e-mail jobs
type TaskEnqueuer interface {
	// Method EnqueueWelcomeEmail schedules the welcome e-mail for a newly registered user.
	EnqueueWelcomeEmail(ctx context.Context, email, username string) error
	// Method EnqueueOrderConfirmation schedules the confirmation e-mail for a placed order.
	EnqueueOrderConfirmation(ctx context.Context, email string, order *models.Order) error
}

// EventPublisher is the interface for publishing order lifecycle events
type EventPublisher interface {
	// Method PublishOrderEvent publishes an order event to the broker.
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}
