package service

import (
	"context"
	"io"

	"storefront/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of every backend API.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListShops(ctx context.Context) ([]model.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shop), args.Error(1)
}

func (m *MockBackend) ListMenuItems(ctx context.Context, shopID string) ([]model.MenuItem, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MenuItem), args.Error(1)
}

func (m *MockBackend) GetShopPaymentDetails(ctx context.Context, shopID string) (*model.PaymentDetails, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentDetails), args.Error(1)
}

func (m *MockBackend) UploadImage(ctx context.Context, filename, contentType string, data io.Reader) (string, error) {
	args := m.Called(ctx, filename, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) VerifyPaymentAndCreateOrder(ctx context.Context, req *model.VerifyPaymentRequest, idempotencyKey string) (*model.VerifyPaymentResponse, error) {
	args := m.Called(ctx, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerifyPaymentResponse), args.Error(1)
}

func (m *MockBackend) ListUserOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockBackend) ListShopOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockBackend) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockBackend) UpdatePaymentStatus(ctx context.Context, orderID, paymentID string, status model.PaymentStatus) error {
	args := m.Called(ctx, orderID, paymentID, status)
	return args.Error(0)
}

func (m *MockBackend) GetPaymentInfo(ctx context.Context, orderID string) (*model.PaymentInfo, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentInfo), args.Error(1)
}

func (m *MockBackend) GetPaymentRecord(ctx context.Context, paymentID string) (*model.PaymentInfo, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentInfo), args.Error(1)
}

func (m *MockBackend) OwnerShops(ctx context.Context) ([]model.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shop), args.Error(1)
}

func (m *MockBackend) ShopDashboard(ctx context.Context, shopID string) (*model.ShopDashboard, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShopDashboard), args.Error(1)
}
