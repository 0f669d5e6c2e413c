package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-studio/api/internal/binding"
	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/httpx"
	"github.com/lumina-studio/api/internal/repositories"
	"github.com/lumina-studio/api/internal/services"
)

// AdminHandlers exposes the back-office endpoints. Authentication happens at
// the edge proxy; this group trusts its caller.
type AdminHandlers struct {
	catalog      services.CatalogService
	availability services.AvailabilityService
	siteConfig   services.SiteConfigService
	orders       services.OrderService
	receipts     services.ReceiptService
	automation   services.AutomationService
	planView     *binding.View[domain.Plan]
}

// AdminOption customises construction of AdminHandlers.
type AdminOption func(*AdminHandlers)

// WithAdminCatalogService injects the catalog service dependency.
func WithAdminCatalogService(svc services.CatalogService) AdminOption {
	return func(h *AdminHandlers) {
		h.catalog = svc
	}
}

// WithAdminAvailabilityService injects the founder management dependency.
func WithAdminAvailabilityService(svc services.AvailabilityService) AdminOption {
	return func(h *AdminHandlers) {
		h.availability = svc
	}
}

// WithAdminSiteConfigService injects the site configuration dependency.
func WithAdminSiteConfigService(svc services.SiteConfigService) AdminOption {
	return func(h *AdminHandlers) {
		h.siteConfig = svc
	}
}

// WithAdminOrderService injects the order management dependency.
func WithAdminOrderService(svc services.OrderService) AdminOption {
	return func(h *AdminHandlers) {
		h.orders = svc
	}
}

// WithAdminReceiptService injects the receipt record builder dependency.
func WithAdminReceiptService(svc services.ReceiptService) AdminOption {
	return func(h *AdminHandlers) {
		h.receipts = svc
	}
}

// WithAdminAutomationService injects the automation proxy dependency.
func WithAdminAutomationService(svc services.AutomationService) AdminOption {
	return func(h *AdminHandlers) {
		h.automation = svc
	}
}

// WithAdminPlanView attaches the bound plan collection snapshot so catalog
// writes confirm through it per the refetch-after-write policy.
func WithAdminPlanView(view *binding.View[domain.Plan]) AdminOption {
	return func(h *AdminHandlers) {
		h.planView = view
	}
}

// NewAdminHandlers constructs handlers for the admin endpoints.
func NewAdminHandlers(opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the admin endpoints on the given router.
func (h *AdminHandlers) Routes(r chi.Router) {
	r.Route("/plans", func(pr chi.Router) {
		pr.Get("/", h.listPlans)
		pr.Post("/", h.createPlan)
		pr.Get("/{planId}", h.getPlan)
		pr.Patch("/{planId}", h.updatePlan)
		pr.Delete("/{planId}", h.deletePlan)
		pr.Post("/{planId}/activate", h.activatePlan)
		pr.Patch("/{planId}/promotion", h.updatePromotion)
	})

	r.Route("/founders", func(fr chi.Router) {
		fr.Post("/", h.createFounder)
		fr.Patch("/{founderId}", h.updateFounder)
		fr.Delete("/{founderId}", h.deleteFounder)
	})

	r.Route("/orders", func(or chi.Router) {
		or.Get("/", h.listOrders)
		or.Get("/{orderId}", h.getOrder)
		or.Patch("/{orderId}", h.updateOrder)
		or.Delete("/{orderId}", h.deleteOrder)
		or.Get("/{orderId}/receipt", h.buildReceipt)
	})

	r.Patch("/config", h.mergeSiteConfig)
	r.Post("/automation", h.runAutomation)
}

func (h *AdminHandlers) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.ListPlans(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": toPlanDTOs(plans)})
}

func (h *AdminHandlers) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.catalog.GetPlan(r.Context(), chi.URLParam(r, "planId"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPlanDTO(plan))
}

type promotionRequest struct {
	Active      *bool    `json:"active"`
	Kind        *string  `json:"kind"`
	Value       *float64 `json:"value"`
	Description *string  `json:"description"`
}

type createPlanRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          priceDTO          `json:"price"`
	Features       []string          `json:"features"`
	Limitations    []string          `json:"limitations"`
	Tier           string            `json:"tier"`
	Category       string            `json:"category"`
	Popular        bool              `json:"popular"`
	Active         bool              `json:"active"`
	Order          int               `json:"order"`
	TrialDays      int               `json:"trialDays"`
	ContactHandles map[string]string `json:"contactHandles"`
	Promotion      promotionDTO      `json:"promotion"`
}

func (h *AdminHandlers) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	var plan domain.Plan
	err := h.mutatePlans(r.Context(), func(ctx context.Context) error {
		var createErr error
		plan, createErr = h.catalog.CreatePlan(ctx, services.CreatePlanCommand{
			Name:           req.Name,
			Description:    req.Description,
			Price:          domain.Price{Amount: req.Price.Amount, Currency: req.Price.Currency},
			Features:       req.Features,
			Limitations:    req.Limitations,
			Tier:           domain.PlanTier(req.Tier),
			Category:       req.Category,
			Popular:        req.Popular,
			Active:         req.Active,
			Order:          req.Order,
			TrialDays:      req.TrialDays,
			ContactHandles: req.ContactHandles,
			Promotion: domain.Promotion{
				Active:      req.Promotion.Active,
				Kind:        domain.PromotionKind(req.Promotion.Kind),
				Value:       req.Promotion.Value,
				Description: req.Promotion.Description,
			},
		})
		return createErr
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toPlanDTO(plan))
}

type updatePlanRequest struct {
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	Price          *priceDTO          `json:"price"`
	Features       *[]string          `json:"features"`
	Limitations    *[]string          `json:"limitations"`
	Tier           *string            `json:"tier"`
	Category       *string            `json:"category"`
	Popular        *bool              `json:"popular"`
	Active         *bool              `json:"active"`
	Order          *int               `json:"order"`
	TrialDays      *int               `json:"trialDays"`
	ContactHandles *map[string]string `json:"contactHandles"`
	Promotion      *promotionRequest  `json:"promotion"`
}

func (req updatePlanRequest) toPatch() repositories.PlanPatch {
	patch := repositories.PlanPatch{
		Name:           req.Name,
		Description:    req.Description,
		Features:       req.Features,
		Limitations:    req.Limitations,
		Category:       req.Category,
		Popular:        req.Popular,
		Active:         req.Active,
		Order:          req.Order,
		TrialDays:      req.TrialDays,
		ContactHandles: req.ContactHandles,
	}
	if req.Price != nil {
		price := domain.Price{Amount: req.Price.Amount, Currency: req.Price.Currency}
		patch.Price = &price
	}
	if req.Tier != nil {
		tier := domain.PlanTier(*req.Tier)
		patch.Tier = &tier
	}
	if req.Promotion != nil {
		patch.Promotion = promotionPatch(*req.Promotion)
	}
	return patch
}

func promotionPatch(req promotionRequest) *repositories.PromotionPatch {
	patch := &repositories.PromotionPatch{
		Active:      req.Active,
		Value:       req.Value,
		Description: req.Description,
	}
	if req.Kind != nil {
		kind := domain.PromotionKind(*req.Kind)
		patch.Kind = &kind
	}
	return patch
}

func (h *AdminHandlers) updatePlan(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}
	planID := chi.URLParam(r, "planId")
	patch := req.toPatch()
	err := h.mutatePlans(r.Context(), func(ctx context.Context) error {
		return h.catalog.UpdatePlan(ctx, planID, patch)
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deletePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	err := h.mutatePlans(r.Context(), func(ctx context.Context) error {
		return h.catalog.DeletePlan(ctx, planID)
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activatePlan flips a plan active through the transactional cap check.
func (h *AdminHandlers) activatePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	active := true
	patch := repositories.PlanPatch{Active: &active}
	err := h.mutatePlans(r.Context(), func(ctx context.Context) error {
		return h.catalog.UpdatePlan(ctx, planID, patch)
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updatePromotion merges individual promotion fields, leaving omitted ones as
// stored.
func (h *AdminHandlers) updatePromotion(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}
	planID := chi.URLParam(r, "planId")
	patch := repositories.PlanPatch{Promotion: promotionPatch(req)}
	err := h.mutatePlans(r.Context(), func(ctx context.Context) error {
		return h.catalog.UpdatePlan(ctx, planID, patch)
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutatePlans routes a catalog write through the bound view when one is
// attached, so the snapshot confirms the write per the refetch policy.
func (h *AdminHandlers) mutatePlans(ctx context.Context, action func(ctx context.Context) error) error {
	if h.planView != nil {
		return h.planView.Mutate(ctx, action)
	}
	return action(ctx)
}

type founderRequest struct {
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	Location     string          `json:"location"`
	Specialties  []string        `json:"specialties"`
	Availability availabilityDTO `json:"availability"`
}

func (h *AdminHandlers) createFounder(w http.ResponseWriter, r *http.Request) {
	var req founderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	founder, err := h.availability.CreateFounder(r.Context(), domain.Founder{
		Name:        req.Name,
		Role:        req.Role,
		Location:    req.Location,
		Specialties: req.Specialties,
		Availability: domain.AvailabilityWindow{
			Start: domain.ClockTime{Hour: req.Availability.Start.Hour, Minute: req.Availability.Start.Minute},
			End:   domain.ClockTime{Hour: req.Availability.End.Hour, Minute: req.Availability.End.Minute},
		},
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toFounderDTO(domain.FounderPresence{Founder: founder}))
}

type updateFounderRequest struct {
	Name         *string          `json:"name"`
	Role         *string          `json:"role"`
	Location     *string          `json:"location"`
	Specialties  *[]string        `json:"specialties"`
	Availability *availabilityDTO `json:"availability"`
}

func (h *AdminHandlers) updateFounder(w http.ResponseWriter, r *http.Request) {
	var req updateFounderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	patch := repositories.FounderPatch{
		Name:        req.Name,
		Role:        req.Role,
		Location:    req.Location,
		Specialties: req.Specialties,
	}
	if req.Availability != nil {
		window := domain.AvailabilityWindow{
			Start: domain.ClockTime{Hour: req.Availability.Start.Hour, Minute: req.Availability.Start.Minute},
			End:   domain.ClockTime{Hour: req.Availability.End.Hour, Minute: req.Availability.End.Minute},
		}
		patch.Availability = &window
	}

	if err := h.availability.UpdateFounder(r.Context(), chi.URLParam(r, "founderId"), patch); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deleteFounder(w http.ResponseWriter, r *http.Request) {
	if err := h.availability.DeleteFounder(r.Context(), chi.URLParam(r, "founderId")); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	items := make([]orderDTO, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderDTO(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrderDTO(order))
}

type updateOrderRequest struct {
	Status     *string `json:"status"`
	AssignedTo *string `json:"assignedTo"`
	Priority   *string `json:"priority"`
	Notes      *string `json:"notes"`
}

func (h *AdminHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	patch := repositories.OrderAdminPatch{
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		Notes:      req.Notes,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}

	if err := h.orders.UpdateOrderAdmin(r.Context(), chi.URLParam(r, "orderId"), patch); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// buildReceipt assembles the renderer payload for an order and its plan.
func (h *AdminHandlers) buildReceipt(w http.ResponseWriter, r *http.Request) {
	record, err := h.receipts.BuildReceipt(r.Context(), chi.URLParam(r, "orderId"), r.URL.Query().Get("planId"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toReceiptDTO(record))
}

type mergeSiteConfigRequest struct {
	Phone      *string        `json:"phone"`
	WhatsApp   *string        `json:"whatsapp"`
	Discord    *string        `json:"discord"`
	Email      *string        `json:"email"`
	Instagram  *string        `json:"instagram"`
	Categories *[]categoryDTO `json:"categories"`
	Types      *[]categoryDTO `json:"types"`
}

func (h *AdminHandlers) mergeSiteConfig(w http.ResponseWriter, r *http.Request) {
	var req mergeSiteConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(r.Context(), w)
		return
	}

	patch := repositories.SiteConfigPatch{
		Phone:     req.Phone,
		WhatsApp:  req.WhatsApp,
		Discord:   req.Discord,
		Email:     req.Email,
		Instagram: req.Instagram,
	}
	if req.Categories != nil {
		categories := make([]domain.CategoryDefinition, 0, len(*req.Categories))
		for _, c := range *req.Categories {
			categories = append(categories, domain.CategoryDefinition{ID: c.ID, Label: c.Label, Active: c.Active})
		}
		patch.Categories = &categories
	}
	if req.Types != nil {
		types := make([]domain.TypeDefinition, 0, len(*req.Types))
		for _, t := range *req.Types {
			types = append(types, domain.TypeDefinition{ID: t.ID, Label: t.Label, Active: t.Active})
		}
		patch.Types = &types
	}

	if err := h.siteConfig.Merge(r.Context(), patch); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) runAutomation(w http.ResponseWriter, r *http.Request) {
	var cmd services.AutomationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		decodeError(r.Context(), w)
		return
	}

	result, err := h.automation.Run(r.Context(), cmd)
	if err != nil {
		var validation *domain.ValidationError
		var persistence *domain.PersistenceError
		if errors.As(err, &validation) || errors.As(err, &persistence) {
			writeDomainError(r.Context(), w, err)
			return
		}
		// Provider rejections keep the provider wire shape so the admin UI
		// can show the reason inline.
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
