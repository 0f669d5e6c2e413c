package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumina-studio/api/internal/binding"
	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/repositories"
	"github.com/lumina-studio/api/internal/services"
)

type stubAutomationService struct {
	runFn func(ctx context.Context, cmd services.AutomationCommand) (string, error)
}

func (s *stubAutomationService) Run(ctx context.Context, cmd services.AutomationCommand) (string, error) {
	if s.runFn != nil {
		return s.runFn(ctx, cmd)
	}
	return "", nil
}

func adminRouter(opts ...AdminOption) http.Handler {
	return NewRouter(WithAdminRoutes(NewAdminHandlers(opts...).Routes))
}

func TestActivatePlanCapMapsToConflict(t *testing.T) {
	catalog := &stubCatalogService{
		updateFn: func(_ context.Context, planID string, patch repositories.PlanPatch) error {
			if patch.Active == nil || !*patch.Active {
				t.Fatalf("expected activation patch, got %+v", patch)
			}
			return domain.NewRuleViolation("max active plans reached", "at most 3 plans may be active")
		},
	}
	router := adminRouter(WithAdminCatalogService(catalog))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/plans/p4/activate", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != "rule_violation" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestUpdatePromotionSendsPartialPatch(t *testing.T) {
	var got repositories.PlanPatch
	catalog := &stubCatalogService{
		updateFn: func(_ context.Context, _ string, patch repositories.PlanPatch) error {
			got = patch
			return nil
		},
	}
	router := adminRouter(WithAdminCatalogService(catalog))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/plans/p1/promotion",
		strings.NewReader(`{"active":false}`)))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Promotion == nil || got.Promotion.Active == nil || *got.Promotion.Active {
		t.Fatalf("expected promotion.active=false, got %+v", got.Promotion)
	}
	if got.Promotion.Kind != nil || got.Promotion.Value != nil || got.Promotion.Description != nil {
		t.Fatal("omitted promotion fields must stay nil")
	}
}

func TestUpdateOrderForwardsAdminPatch(t *testing.T) {
	var gotID string
	var got repositories.OrderAdminPatch
	orderSvc := &stubOrderService{
		updateFn: func(_ context.Context, orderID string, patch repositories.OrderAdminPatch) error {
			gotID = orderID
			got = patch
			return nil
		},
	}
	router := adminRouter(WithAdminOrderService(orderSvc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/o7",
		strings.NewReader(`{"status":"in_progress","assignedTo":"rivka"}`)))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotID != "o7" {
		t.Fatalf("expected order o7, got %q", gotID)
	}
	if got.Status == nil || *got.Status != domain.OrderStatusInProgress {
		t.Fatalf("expected status patch, got %+v", got)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "rivka" {
		t.Fatalf("expected assignee patch, got %+v", got)
	}
	if got.Notes != nil || got.Priority != nil {
		t.Fatal("omitted fields must stay nil")
	}
}

func TestPlanWriteConfirmsThroughBoundView(t *testing.T) {
	listCalls := 0
	view, err := binding.NewView(func(context.Context) ([]domain.Plan, error) {
		listCalls++
		return []domain.Plan{{ID: "p1", Name: "Renamed", Active: true, Order: 1}}, nil
	}, nil, binding.Options{RefetchAfterWrite: true})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}

	catalog := &stubCatalogService{
		updateFn: func(context.Context, string, repositories.PlanPatch) error { return nil },
	}
	router := adminRouter(WithAdminCatalogService(catalog), WithAdminPlanView(view))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/plans/p1",
		strings.NewReader(`{"name":"Renamed"}`)))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if listCalls != 1 {
		t.Fatalf("expected one confirming re-list, got %d", listCalls)
	}
	snap := view.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Name != "Renamed" {
		t.Fatalf("expected confirmed snapshot, got %+v", snap.Items)
	}
}

func TestFailedPlanWriteSkipsConfirmingRelist(t *testing.T) {
	listCalls := 0
	view, err := binding.NewView(func(context.Context) ([]domain.Plan, error) {
		listCalls++
		return nil, nil
	}, nil, binding.Options{RefetchAfterWrite: true})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}

	catalog := &stubCatalogService{
		updateFn: func(context.Context, string, repositories.PlanPatch) error {
			return domain.NewRuleViolation("max active plans reached", "at most 3 plans may be active")
		},
	}
	router := adminRouter(WithAdminCatalogService(catalog), WithAdminPlanView(view))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/plans/p4/activate", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if listCalls != 0 {
		t.Fatalf("failed write must not refetch, got %d lists", listCalls)
	}
	if view.Snapshot().Err == "" {
		t.Fatal("expected view error state after failed write")
	}
}

func TestGetMissingOrderMapsTo404(t *testing.T) {
	orderSvc := &stubOrderService{
		updateFn: func(context.Context, string, repositories.OrderAdminPatch) error {
			return domain.NewNotFoundError("orders", "gone")
		},
	}
	router := adminRouter(WithAdminOrderService(orderSvc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/gone",
		strings.NewReader(`{"priority":"high"}`)))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRunAutomationKeepsProviderWireShape(t *testing.T) {
	automation := &stubAutomationService{
		runFn: func(_ context.Context, cmd services.AutomationCommand) (string, error) {
			if cmd.Prompt != "write copy" {
				t.Fatalf("unexpected prompt %q", cmd.Prompt)
			}
			return "done", nil
		},
	}
	router := adminRouter(WithAdminAutomationService(automation))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/automation",
		strings.NewReader(`{"type":"copywriting","prompt":"write copy"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["success"] != true || body["data"] != "done" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRunAutomationProviderRejectionIsNotAnHTTPError(t *testing.T) {
	automation := &stubAutomationService{
		runFn: func(context.Context, services.AutomationCommand) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	router := adminRouter(WithAdminAutomationService(automation))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/automation",
		strings.NewReader(`{"type":"t","prompt":"p"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["success"] != false || body["error"] == "" {
		t.Fatalf("unexpected body %+v", body)
	}
}
