package shared

import (
	"context"

	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the checkout and payment
// repositories. Everything done through the repositories handed to fn is
// committed together, or rolled back together when fn returns an error.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories that share one
// database transaction.
type TransactionalRepositories interface {
	// ProductRepo is the inventory ledger
	ProductRepo() catalog.ProductRepository
	CartRepo() trade.CartRepository
	OrderRepo() trade.OrderRepository
	PaymentRepo() finance.PaymentRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. It is meant for unit tests with mocked repositories.
type NoOpTransactionScope struct {
	productRepo catalog.ProductRepository
	cartRepo    trade.CartRepository
	orderRepo   trade.OrderRepository
	paymentRepo finance.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	cartRepo trade.CartRepository,
	orderRepo trade.OrderRepository,
	paymentRepo finance.PaymentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
	}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }
func (s *NoOpTransactionScope) CartRepo() trade.CartRepository         { return s.cartRepo }
func (s *NoOpTransactionScope) OrderRepo() trade.OrderRepository       { return s.orderRepo }
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository { return s.paymentRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
