package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

// OrderServiceDeps bundles dependencies for the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
}

type orderService struct {
	orders    repositories.OrderRepository
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

// NewOrderService wires an OrderService. Free-text submission fields are
// stripped of markup before persistence; timestamps are owned by the
// repository so the returned record matches the stored document.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, ErrOrderRepositoryMissing
	}
	return &orderService{
		orders:    deps.Orders,
		validate:  validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("orders", "", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.NewValidationError("id", "order id is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, translateRepositoryError("orders", orderID, err)
	}
	return order, nil
}

// SubmitOrder validates the public form payload, sanitises free text, and
// persists the lead with status pending. Customer identity fields are
// immutable after this write.
func (s *orderService) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Order{}, domain.NewValidationError(firstValidationField(err), "missing or malformed value")
	}

	order := domain.Order{
		CustomerName: s.sanitizer.Sanitize(strings.TrimSpace(cmd.CustomerName)),
		Email:        strings.TrimSpace(cmd.Email),
		WhatsApp:     strings.TrimSpace(cmd.WhatsApp),
		ProjectType:  strings.TrimSpace(cmd.ProjectType),
		Category:     strings.TrimSpace(cmd.Category),
		Description:  s.sanitizer.Sanitize(strings.TrimSpace(cmd.Description)),
		Budget:       strings.TrimSpace(cmd.Budget),
		Timeline:     strings.TrimSpace(cmd.Timeline),
		Status:       domain.OrderStatusPending,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, translateRepositoryError("orders", "", err)
	}
	return created, nil
}

// UpdateOrderAdmin mutates status, assignment, priority, and notes only.
func (s *orderService) UpdateOrderAdmin(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.NewValidationError("id", "order id is required")
	}
	if patch.Status == nil && patch.AssignedTo == nil && patch.Priority == nil && patch.Notes == nil {
		return domain.NewValidationError("patch", "no fields to update")
	}
	if patch.Status != nil && !validOrderStatus(*patch.Status) {
		return domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *patch.Status))
	}
	if patch.Notes != nil {
		sanitized := s.sanitizer.Sanitize(*patch.Notes)
		patch.Notes = &sanitized
	}

	if err := s.orders.UpdateAdmin(ctx, orderID, patch); err != nil {
		return translateRepositoryError("orders", orderID, err)
	}
	return nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.NewValidationError("id", "order id is required")
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return translateRepositoryError("orders", orderID, err)
	}
	return nil
}

func (s *orderService) WatchOrders(ctx context.Context, onChange func([]domain.Order), onError func(error)) (repositories.StopWatch, error) {
	return s.orders.Watch(ctx, onChange, onError)
}

func validOrderStatus(status domain.OrderStatus) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusInProgress,
		domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		return true
	}
	return false
}

// firstValidationField extracts the offending field name from a validator error.
func firstValidationField(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Field()
	}
	return ""
}
