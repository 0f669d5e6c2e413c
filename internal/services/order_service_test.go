package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

type stubOrderRepo struct {
	listFn        func(ctx context.Context) ([]domain.Order, error)
	findFn        func(ctx context.Context, orderID string) (domain.Order, error)
	createFn      func(ctx context.Context, order domain.Order) (domain.Order, error)
	updateAdminFn func(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error
	deleteFn      func(ctx context.Context, orderID string) error
}

func (s *stubOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, order)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) UpdateAdmin(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error {
	if s.updateAdminFn != nil {
		return s.updateAdminFn(ctx, orderID, patch)
	}
	return errors.New("not implemented")
}

func (s *stubOrderRepo) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepo) Watch(context.Context, func([]domain.Order), func(error)) (repositories.StopWatch, error) {
	return func() {}, nil
}

func validSubmission() SubmitOrderCommand {
	return SubmitOrderCommand{
		CustomerName: "Ada Lovelace",
		Email:        "ada@example.com",
		ProjectType:  "website",
		Category:     "design",
		Description:  "Landing page for a product launch",
	}
}

func newTestOrderService(t *testing.T, repo *stubOrderRepo) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{Orders: repo})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func TestSubmitOrderForcesPendingStatus(t *testing.T) {
	var stored domain.Order
	repo := &stubOrderRepo{
		createFn: func(_ context.Context, order domain.Order) (domain.Order, error) {
			stored = order
			order.ID = "o1"
			return order, nil
		},
	}
	svc := newTestOrderService(t, repo)

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if stored.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", stored.Status)
	}
	if order.ID != "o1" {
		t.Fatalf("expected id o1, got %s", order.ID)
	}
}

func TestSubmitOrderReturnsStoredTimestamps(t *testing.T) {
	storedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo := &stubOrderRepo{
		createFn: func(_ context.Context, order domain.Order) (domain.Order, error) {
			order.ID = "o2"
			order.CreatedAt = storedAt
			order.UpdatedAt = storedAt
			return order, nil
		},
	}
	svc := newTestOrderService(t, repo)

	order, err := svc.SubmitOrder(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if !order.CreatedAt.Equal(storedAt) || !order.UpdatedAt.Equal(storedAt) {
		t.Fatalf("returned timestamps must match the stored document, got %s/%s", order.CreatedAt, order.UpdatedAt)
	}
}

func TestSubmitOrderStripsMarkupFromFreeText(t *testing.T) {
	var stored domain.Order
	repo := &stubOrderRepo{
		createFn: func(_ context.Context, order domain.Order) (domain.Order, error) {
			stored = order
			order.ID = "o1"
			return order, nil
		},
	}
	svc := newTestOrderService(t, repo)

	cmd := validSubmission()
	cmd.CustomerName = `Ada <script>alert("x")</script>`
	cmd.Description = "Hello <b>world</b>"
	if _, err := svc.SubmitOrder(context.Background(), cmd); err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if strings.Contains(stored.CustomerName, "<") {
		t.Fatalf("customer name kept markup: %q", stored.CustomerName)
	}
	if strings.Contains(stored.Description, "<b>") {
		t.Fatalf("description kept markup: %q", stored.Description)
	}
}

func TestSubmitOrderRejectsMalformedEmail(t *testing.T) {
	svc := newTestOrderService(t, &stubOrderRepo{})

	cmd := validSubmission()
	cmd.Email = "not-an-email"
	_, err := svc.SubmitOrder(context.Background(), cmd)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validation.Field != "Email" {
		t.Fatalf("expected Email field, got %q", validation.Field)
	}
}

func TestUpdateOrderAdminRejectsUnknownStatus(t *testing.T) {
	svc := newTestOrderService(t, &stubOrderRepo{})

	status := domain.OrderStatus("shipped")
	err := svc.UpdateOrderAdmin(context.Background(), "o1", repositories.OrderAdminPatch{Status: &status})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateOrderAdminSanitisesNotes(t *testing.T) {
	var applied repositories.OrderAdminPatch
	repo := &stubOrderRepo{
		updateAdminFn: func(_ context.Context, _ string, patch repositories.OrderAdminPatch) error {
			applied = patch
			return nil
		},
	}
	svc := newTestOrderService(t, repo)

	notes := `follow up <img src=x onerror=alert(1)>`
	if err := svc.UpdateOrderAdmin(context.Background(), "o1", repositories.OrderAdminPatch{Notes: &notes}); err != nil {
		t.Fatalf("update order: %v", err)
	}
	if applied.Notes == nil || strings.Contains(*applied.Notes, "<img") {
		t.Fatalf("notes kept markup: %v", applied.Notes)
	}
}

func TestUpdateOrderAdminRejectsEmptyPatch(t *testing.T) {
	svc := newTestOrderService(t, &stubOrderRepo{})

	err := svc.UpdateOrderAdmin(context.Background(), "o1", repositories.OrderAdminPatch{})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
