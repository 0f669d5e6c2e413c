package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-studio/api/internal/binding"
	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/httpx"
	"github.com/lumina-studio/api/internal/services"
)

// PublicHandlers exposes the unauthenticated site endpoints.
type PublicHandlers struct {
	catalog      services.CatalogService
	availability services.AvailabilityService
	siteConfig   services.SiteConfigService
	orders       services.OrderService
	planView     *binding.View[domain.Plan]
}

// PublicOption customises construction of PublicHandlers.
type PublicOption func(*PublicHandlers)

// WithPublicCatalogService injects the catalog service dependency.
func WithPublicCatalogService(svc services.CatalogService) PublicOption {
	return func(h *PublicHandlers) {
		h.catalog = svc
	}
}

// WithPublicAvailabilityService injects the founder availability dependency.
func WithPublicAvailabilityService(svc services.AvailabilityService) PublicOption {
	return func(h *PublicHandlers) {
		h.availability = svc
	}
}

// WithPublicSiteConfigService injects the site configuration dependency.
func WithPublicSiteConfigService(svc services.SiteConfigService) PublicOption {
	return func(h *PublicHandlers) {
		h.siteConfig = svc
	}
}

// WithPublicOrderService injects the order submission dependency.
func WithPublicOrderService(svc services.OrderService) PublicOption {
	return func(h *PublicHandlers) {
		h.orders = svc
	}
}

// WithPublicPlanView attaches the bound plan collection snapshot. Plan reads
// are answered from it instead of hitting the store on every request.
func WithPublicPlanView(view *binding.View[domain.Plan]) PublicOption {
	return func(h *PublicHandlers) {
		h.planView = view
	}
}

// NewPublicHandlers constructs handlers for the public endpoints.
func NewPublicHandlers(opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public endpoints on the given router.
func (h *PublicHandlers) Routes(r chi.Router) {
	r.Get("/plans", h.listActivePlans)
	r.Get("/founders", h.listFounders)
	r.Get("/config", h.getSiteConfig)
	r.Post("/orders", h.submitOrder)
}

// listActivePlans returns active plans only, sorted by their order value.
func (h *PublicHandlers) listActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.currentPlans(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	active := make([]domain.Plan, 0, len(plans))
	for _, plan := range plans {
		if plan.Active {
			active = append(active, plan)
		}
	}
	sortPlansByOrder(active)

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": toPlanDTOs(active)})
}

func (h *PublicHandlers) listFounders(w http.ResponseWriter, r *http.Request) {
	founders, err := h.availability.ListFounders(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	items := make([]founderDTO, 0, len(founders))
	for _, presence := range founders {
		items = append(items, toFounderDTO(presence))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *PublicHandlers) getSiteConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.siteConfig.Get(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSiteConfigDTO(cfg))
}

type submitOrderRequest struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	WhatsApp     string `json:"whatsapp"`
	ProjectType  string `json:"projectType"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Budget       string `json:"budget"`
	Timeline     string `json:"timeline"`
}

func (h *PublicHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	order, err := h.orders.SubmitOrder(r.Context(), services.SubmitOrderCommand{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		WhatsApp:     req.WhatsApp,
		ProjectType:  req.ProjectType,
		Category:     req.Category,
		Description:  req.Description,
		Budget:       req.Budget,
		Timeline:     req.Timeline,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrderDTO(order))
}

// currentPlans prefers the bound snapshot; a view that is still loading or
// carries an error falls back to a direct list.
func (h *PublicHandlers) currentPlans(ctx context.Context) ([]domain.Plan, error) {
	if h.planView != nil {
		snap := h.planView.Snapshot()
		if !snap.Loading && snap.Err == "" {
			return snap.Items, nil
		}
	}
	return h.catalog.ListPlans(ctx)
}

func sortPlansByOrder(plans []domain.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Order < plans[j].Order
	})
}
