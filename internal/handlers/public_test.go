package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumina-studio/api/internal/binding"
	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
	"github.com/lumina-studio/api/internal/services"
)

type stubCatalogService struct {
	listFn   func(ctx context.Context) ([]domain.Plan, error)
	getFn    func(ctx context.Context, planID string) (domain.Plan, error)
	createFn func(ctx context.Context, cmd services.CreatePlanCommand) (domain.Plan, error)
	updateFn func(ctx context.Context, planID string, patch repositories.PlanPatch) error
	deleteFn func(ctx context.Context, planID string) error
}

func (s *stubCatalogService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubCatalogService) GetPlan(ctx context.Context, planID string) (domain.Plan, error) {
	if s.getFn != nil {
		return s.getFn(ctx, planID)
	}
	return domain.Plan{}, errors.New("not implemented")
}

func (s *stubCatalogService) CreatePlan(ctx context.Context, cmd services.CreatePlanCommand) (domain.Plan, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Plan{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpdatePlan(ctx context.Context, planID string, patch repositories.PlanPatch) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, planID, patch)
	}
	return errors.New("not implemented")
}

func (s *stubCatalogService) DeletePlan(ctx context.Context, planID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, planID)
	}
	return nil
}

func (s *stubCatalogService) WatchPlans(context.Context, func([]domain.Plan), func(error)) (repositories.StopWatch, error) {
	return func() {}, nil
}

type stubOrderService struct {
	submitFn func(ctx context.Context, cmd services.SubmitOrderCommand) (domain.Order, error)
	updateFn func(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error
	listFn   func(ctx context.Context) ([]domain.Order, error)
}

func (s *stubOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderService) GetOrder(context.Context, string) (domain.Order, error) {
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) SubmitOrder(ctx context.Context, cmd services.SubmitOrderCommand) (domain.Order, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, cmd)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) UpdateOrderAdmin(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, orderID, patch)
	}
	return errors.New("not implemented")
}

func (s *stubOrderService) DeleteOrder(context.Context, string) error { return nil }

func (s *stubOrderService) WatchOrders(context.Context, func([]domain.Order), func(error)) (repositories.StopWatch, error) {
	return func() {}, nil
}

func TestListActivePlansFiltersAndSorts(t *testing.T) {
	catalog := &stubCatalogService{
		listFn: func(context.Context) ([]domain.Plan, error) {
			return []domain.Plan{
				{ID: "p1", Name: "Pro", Active: true, Order: 2},
				{ID: "p2", Name: "Draft", Active: false, Order: 1},
				{ID: "p3", Name: "Basic", Active: true, Order: 1},
			}, nil
		},
	}
	h := NewPublicHandlers(WithPublicCatalogService(catalog))

	router := NewRouter(WithPublicRoutes(h.Routes))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/public/plans", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Items []planDTO `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected two active plans, got %d", len(body.Items))
	}
	if body.Items[0].ID != "p3" || body.Items[1].ID != "p1" {
		t.Fatalf("expected order-sorted plans, got %s then %s", body.Items[0].ID, body.Items[1].ID)
	}
}

func TestListActivePlansServedFromBoundSnapshot(t *testing.T) {
	view, err := binding.NewView(func(context.Context) ([]domain.Plan, error) {
		return []domain.Plan{
			{ID: "p1", Name: "Pro", Active: true, Order: 2},
			{ID: "p2", Name: "Draft", Active: false, Order: 1},
			{ID: "p3", Name: "Basic", Active: true, Order: 1},
		}, nil
	}, nil, binding.Options{})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh view: %v", err)
	}

	catalog := &stubCatalogService{
		listFn: func(context.Context) ([]domain.Plan, error) {
			return nil, errors.New("store must not be hit while the snapshot is live")
		},
	}
	h := NewPublicHandlers(WithPublicCatalogService(catalog), WithPublicPlanView(view))
	router := NewRouter(WithPublicRoutes(h.Routes))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/public/plans", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Items []planDTO `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 2 || body.Items[0].ID != "p3" || body.Items[1].ID != "p1" {
		t.Fatalf("expected snapshot-served plans p3,p1, got %+v", body.Items)
	}
}

func TestListActivePlansFallsBackWhenViewDegraded(t *testing.T) {
	view, err := binding.NewView(func(context.Context) ([]domain.Plan, error) {
		return nil, errors.New("listener lost")
	}, nil, binding.Options{})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	_ = view.Refresh(context.Background())

	catalog := &stubCatalogService{
		listFn: func(context.Context) ([]domain.Plan, error) {
			return []domain.Plan{{ID: "p1", Name: "Basic", Active: true, Order: 1}}, nil
		},
	}
	h := NewPublicHandlers(WithPublicCatalogService(catalog), WithPublicPlanView(view))
	router := NewRouter(WithPublicRoutes(h.Routes))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/public/plans", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Items []planDTO `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].ID != "p1" {
		t.Fatalf("expected direct list fallback, got %+v", body.Items)
	}
}

func TestSubmitOrderReturnsCreated(t *testing.T) {
	orderSvc := &stubOrderService{
		submitFn: func(_ context.Context, cmd services.SubmitOrderCommand) (domain.Order, error) {
			return domain.Order{ID: "o1", CustomerName: cmd.CustomerName, Status: domain.OrderStatusPending}, nil
		},
	}
	h := NewPublicHandlers(WithPublicOrderService(orderSvc))
	router := NewRouter(WithPublicRoutes(h.Routes))

	payload := `{"customerName":"Ada","email":"ada@example.com","projectType":"website","category":"design","description":"landing page"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/public/orders", strings.NewReader(payload)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body orderDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.ID != "o1" || body.Status != "pending" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSubmitOrderValidationFailureMapsTo400(t *testing.T) {
	orderSvc := &stubOrderService{
		submitFn: func(context.Context, services.SubmitOrderCommand) (domain.Order, error) {
			return domain.Order{}, domain.NewValidationError("Email", "missing or malformed value")
		},
	}
	h := NewPublicHandlers(WithPublicOrderService(orderSvc))
	router := NewRouter(WithPublicRoutes(h.Routes))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/public/orders", strings.NewReader(`{}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != "validation_failed" || body["field"] != "Email" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestSubmitOrderRejectsMalformedJSON(t *testing.T) {
	h := NewPublicHandlers(WithPublicOrderService(&stubOrderService{}))
	router := NewRouter(WithPublicRoutes(h.Routes))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/public/orders", strings.NewReader(`{`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRouterUnknownRouteAnswersJSON(t *testing.T) {
	router := NewRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != "route_not_found" {
		t.Fatalf("unexpected error body %+v", body)
	}
}
