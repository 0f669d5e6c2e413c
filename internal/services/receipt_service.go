package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
)

// ReceiptServiceDeps bundles dependencies for the receipt record builder.
type ReceiptServiceDeps struct {
	Orders repositories.OrderRepository
	Plans  repositories.PlanRepository
}

type receiptService struct {
	orders  repositories.OrderRepository
	plans   repositories.PlanRepository
	printer *message.Printer
}

// NewReceiptService wires a ReceiptService. The service only assembles the
// flat record handed to the external PDF renderer; rendering never happens here.
func NewReceiptService(deps ReceiptServiceDeps) (ReceiptService, error) {
	if deps.Orders == nil {
		return nil, ErrOrderRepositoryMissing
	}
	if deps.Plans == nil {
		return nil, ErrPlanRepositoryMissing
	}
	return &receiptService{
		orders:  deps.Orders,
		plans:   deps.Plans,
		printer: message.NewPrinter(language.English),
	}, nil
}

func (s *receiptService) BuildReceipt(ctx context.Context, orderID, planID string) (domain.ReceiptRecord, error) {
	orderID = strings.TrimSpace(orderID)
	planID = strings.TrimSpace(planID)
	if orderID == "" {
		return domain.ReceiptRecord{}, domain.NewValidationError("orderId", "order id is required")
	}
	if planID == "" {
		return domain.ReceiptRecord{}, domain.NewValidationError("planId", "plan id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.ReceiptRecord{}, translateRepositoryError("orders", orderID, err)
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return domain.ReceiptRecord{}, translateRepositoryError("plans", planID, err)
	}

	return domain.ReceiptRecord{
		OrderID:        order.ID,
		OrderDate:      order.CreatedAt,
		PlanName:       plan.Name,
		PriceFormatted: s.formatPrice(plan.Price),
		TrialDays:      plan.TrialDays,
		Promotion:      plan.Promotion,
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.Email,
	}, nil
}

// formatPrice localises the minor-unit amount with its currency symbol,
// falling back to a plain rendering for unknown ISO codes.
func (s *receiptService) formatPrice(price domain.Price) string {
	major := float64(price.Amount) / 100
	unit, err := currency.ParseISO(price.Currency)
	if err != nil {
		return fmt.Sprintf("%.2f %s", major, strings.ToUpper(strings.TrimSpace(price.Currency)))
	}
	return s.printer.Sprintf("%v", currency.Symbol(unit.Amount(major)))
}
