package handlers

import (
	"time"

	domain "github.com/lumina-studio/api/internal/domain"
)

// priceDTO is the wire shape of a currency-tagged amount.
type priceDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type promotionDTO struct {
	Active      bool    `json:"active"`
	Kind        string  `json:"kind,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Description string  `json:"description,omitempty"`
}

type planDTO struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Price          priceDTO          `json:"price"`
	Features       []string          `json:"features,omitempty"`
	Limitations    []string          `json:"limitations,omitempty"`
	Tier           string            `json:"tier"`
	Category       string            `json:"category,omitempty"`
	Popular        bool              `json:"popular"`
	Active         bool              `json:"active"`
	Order          int               `json:"order"`
	TrialDays      int               `json:"trialDays,omitempty"`
	ContactHandles map[string]string `json:"contactHandles,omitempty"`
	Promotion      promotionDTO      `json:"promotion"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toPlanDTO(plan domain.Plan) planDTO {
	return planDTO{
		ID:             plan.ID,
		Name:           plan.Name,
		Description:    plan.Description,
		Price:          priceDTO{Amount: plan.Price.Amount, Currency: plan.Price.Currency},
		Features:       plan.Features,
		Limitations:    plan.Limitations,
		Tier:           string(plan.Tier),
		Category:       plan.Category,
		Popular:        plan.Popular,
		Active:         plan.Active,
		Order:          plan.Order,
		TrialDays:      plan.TrialDays,
		ContactHandles: plan.ContactHandles,
		Promotion: promotionDTO{
			Active:      plan.Promotion.Active,
			Kind:        string(plan.Promotion.Kind),
			Value:       plan.Promotion.Value,
			Description: plan.Promotion.Description,
		},
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}

func toPlanDTOs(plans []domain.Plan) []planDTO {
	out := make([]planDTO, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanDTO(plan))
	}
	return out
}

type clockDTO struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type availabilityDTO struct {
	Start clockDTO `json:"start"`
	End   clockDTO `json:"end"`
}

type founderDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Role         string          `json:"role,omitempty"`
	Location     string          `json:"location,omitempty"`
	Specialties  []string        `json:"specialties,omitempty"`
	Availability availabilityDTO `json:"availability"`
	IsOnline     bool            `json:"isOnline"`
}

func toFounderDTO(presence domain.FounderPresence) founderDTO {
	founder := presence.Founder
	return founderDTO{
		ID:          founder.ID,
		Name:        founder.Name,
		Role:        founder.Role,
		Location:    founder.Location,
		Specialties: founder.Specialties,
		Availability: availabilityDTO{
			Start: clockDTO{Hour: founder.Availability.Start.Hour, Minute: founder.Availability.Start.Minute},
			End:   clockDTO{Hour: founder.Availability.End.Hour, Minute: founder.Availability.End.Minute},
		},
		IsOnline: presence.IsOnline,
	}
}

type categoryDTO struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

type siteConfigDTO struct {
	Phone      string        `json:"phone,omitempty"`
	WhatsApp   string        `json:"whatsapp,omitempty"`
	Discord    string        `json:"discord,omitempty"`
	Email      string        `json:"email,omitempty"`
	Instagram  string        `json:"instagram,omitempty"`
	Categories []categoryDTO `json:"categories,omitempty"`
	Types      []categoryDTO `json:"types,omitempty"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func toSiteConfigDTO(cfg domain.SiteConfig) siteConfigDTO {
	categories := make([]categoryDTO, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, categoryDTO{ID: c.ID, Label: c.Label, Active: c.Active})
	}
	types := make([]categoryDTO, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		types = append(types, categoryDTO{ID: t.ID, Label: t.Label, Active: t.Active})
	}
	return siteConfigDTO{
		Phone:      cfg.Phone,
		WhatsApp:   cfg.WhatsApp,
		Discord:    cfg.Discord,
		Email:      cfg.Email,
		Instagram:  cfg.Instagram,
		Categories: categories,
		Types:      types,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

type orderDTO struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	Email        string    `json:"email"`
	WhatsApp     string    `json:"whatsapp,omitempty"`
	ProjectType  string    `json:"projectType"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Budget       string    `json:"budget,omitempty"`
	Timeline     string    `json:"timeline,omitempty"`
	Status       string    `json:"status"`
	AssignedTo   string    `json:"assignedTo,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toOrderDTO(order domain.Order) orderDTO {
	return orderDTO{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		Email:        order.Email,
		WhatsApp:     order.WhatsApp,
		ProjectType:  order.ProjectType,
		Category:     order.Category,
		Description:  order.Description,
		Budget:       order.Budget,
		Timeline:     order.Timeline,
		Status:       string(order.Status),
		AssignedTo:   order.AssignedTo,
		Priority:     order.Priority,
		Notes:        order.Notes,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

type receiptDTO struct {
	OrderID        string       `json:"orderId"`
	OrderDate      time.Time    `json:"orderDate"`
	PlanName       string       `json:"planName"`
	PriceFormatted string       `json:"priceFormatted"`
	TrialDays      int          `json:"trialDays,omitempty"`
	Promotion      promotionDTO `json:"promotion"`
	CustomerName   string       `json:"customerName"`
	CustomerEmail  string       `json:"customerEmail"`
}

func toReceiptDTO(record domain.ReceiptRecord) receiptDTO {
	return receiptDTO{
		OrderID:        record.OrderID,
		OrderDate:      record.OrderDate,
		PlanName:       record.PlanName,
		PriceFormatted: record.PriceFormatted,
		TrialDays:      record.TrialDays,
		Promotion: promotionDTO{
			Active:      record.Promotion.Active,
			Kind:        string(record.Promotion.Kind),
			Value:       record.Promotion.Value,
			Description: record.Promotion.Description,
		},
		CustomerName:  record.CustomerName,
		CustomerEmail: record.CustomerEmail,
	}
}
