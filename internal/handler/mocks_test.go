package handler

import (
	"context"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/proof"
	"storefront/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockDashboard is a mock implementation of service.Dashboard.
type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Open(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDashboard) Close() {
	m.Called()
}

func (m *MockDashboard) Scope() model.Scope {
	return m.Called().Get(0).(model.Scope)
}

func (m *MockDashboard) Orders() []model.Order {
	return m.Called().Get(0).([]model.Order)
}

func (m *MockDashboard) RefreshOrders(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDashboard) OpenOrder(orderID string) (model.Order, error) {
	args := m.Called(orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *MockDashboard) CloseOrder() {
	m.Called()
}

func (m *MockDashboard) Notices(after uint64) []service.Notice {
	return m.Called(after).Get(0).([]service.Notice)
}

// MockCustomerService is a mock implementation of service.CustomerService.
type MockCustomerService struct {
	MockDashboard
}

func (m *MockCustomerService) Shops(ctx context.Context) ([]model.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shop), args.Error(1)
}

func (m *MockCustomerService) SelectShop(ctx context.Context, shopID string) (*service.ShopView, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShopView), args.Error(1)
}

func (m *MockCustomerService) Menu() (*service.ShopView, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShopView), args.Error(1)
}

func (m *MockCustomerService) Cart() cart.Snapshot {
	return m.Called().Get(0).(cart.Snapshot)
}

func (m *MockCustomerService) AddToCart(itemID string) (cart.Snapshot, error) {
	args := m.Called(itemID)
	return args.Get(0).(cart.Snapshot), args.Error(1)
}

func (m *MockCustomerService) UpdateCartItem(itemID string, quantity int) cart.Snapshot {
	return m.Called(itemID, quantity).Get(0).(cart.Snapshot)
}

func (m *MockCustomerService) RemoveCartItem(itemID string) cart.Snapshot {
	return m.Called(itemID).Get(0).(cart.Snapshot)
}

func (m *MockCustomerService) ClearCart() cart.Snapshot {
	return m.Called().Get(0).(cart.Snapshot)
}

func (m *MockCustomerService) BeginCheckout(ctx context.Context, method model.PaymentMethodType) (checkout.Status, error) {
	args := m.Called(ctx, method)
	return args.Get(0).(checkout.Status), args.Error(1)
}

func (m *MockCustomerService) UploadProof(ctx context.Context, ref string) (checkout.Status, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(checkout.Status), args.Error(1)
}

func (m *MockCustomerService) UploadProofImage(ctx context.Context, img *proof.Image) (checkout.Status, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(checkout.Status), args.Error(1)
}

func (m *MockCustomerService) SubmitOrder(ctx context.Context) (*model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockCustomerService) CancelCheckout() (checkout.Status, error) {
	args := m.Called()
	return args.Get(0).(checkout.Status), args.Error(1)
}

func (m *MockCustomerService) CheckoutStatus() checkout.Status {
	return m.Called().Get(0).(checkout.Status)
}

// MockOwnerService is a mock implementation of service.OwnerService.
type MockOwnerService struct {
	MockDashboard
}

func (m *MockOwnerService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOwnerService) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOwnerService) Revenue(ctx context.Context) (*model.ShopDashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShopDashboard), args.Error(1)
}
