package domain

import (
	"time"
)

// PlanTier enumerates the subscription tier kinds offered by the studio.
type PlanTier string

const (
	// PlanTierBasic is the entry-level tier.
	PlanTierBasic PlanTier = "basic"
	// PlanTierPro is the mid-range tier.
	PlanTierPro PlanTier = "pro"
	// PlanTierEnterprise is the top tier.
	PlanTierEnterprise PlanTier = "enterprise"
)

// PromotionKind describes how a promotion discount is applied.
type PromotionKind string

const (
	// PromotionPercentage discounts a percentage of the plan price.
	PromotionPercentage PromotionKind = "percentage"
	// PromotionFixed discounts a fixed amount off the plan price.
	PromotionFixed PromotionKind = "fixed"
)

// Price carries a currency-tagged amount in minor units.
type Price struct {
	Amount   int64
	Currency string
}

// Promotion is the optional discount sub-record attached to a plan.
type Promotion struct {
	Active      bool
	Kind        PromotionKind
	Value       float64
	Description string
}

// Plan is a subscription tier offering published on the site.
type Plan struct {
	ID             string
	Name           string
	Description    string
	Price          Price
	Features       []string
	Limitations    []string
	Tier           PlanTier
	Category       string
	Popular        bool
	Active         bool
	Order          int
	TrialDays      int
	ContactHandles map[string]string
	Promotion      Promotion
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AvailabilityWindow is a daily on-duty window. End before Start means the
// window wraps past midnight into the next day.
type AvailabilityWindow struct {
	Start ClockTime
	End   ClockTime
}

// ClockTime is an hour:minute wall-clock instant without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

// Minutes returns the instant as minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Contains reports whether the given wall-clock instant falls inside the
// window, handling windows that span two days.
func (w AvailabilityWindow) Contains(at ClockTime) bool {
	start := w.Start.Minutes()
	end := w.End.Minutes()
	now := at.Minutes()
	if start == end {
		return false
	}
	if end > start {
		return now >= start && now < end
	}
	// Wraps midnight: [start, 24h) or [0, end).
	return now >= start || now < end
}

// Founder is a team member's public profile and live duty window.
type Founder struct {
	ID           string
	Name         string
	Role         string
	Location     string
	Specialties  []string
	Availability AvailabilityWindow
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FounderPresence pairs a founder with the derived online flag. The flag is
// computed per read against the current clock and is never persisted.
type FounderPresence struct {
	Founder  Founder
	IsOnline bool
}

// CategoryDefinition drives the service-category menus on public forms.
type CategoryDefinition struct {
	ID     string
	Label  string
	Active bool
}

// TypeDefinition drives the project-type menus on public forms.
type TypeDefinition struct {
	ID     string
	Label  string
	Active bool
}

// SiteConfig is the single-instance record of mutable contact and menu data.
// Exactly one document exists, stored under a fixed identifier.
type SiteConfig struct {
	Phone      string
	WhatsApp   string
	Discord    string
	Email      string
	Instagram  string
	Categories []CategoryDefinition
	Types      []TypeDefinition
	UpdatedAt  time.Time
}

// OrderStatus tracks the administrative lifecycle of a customer request.
type OrderStatus string

const (
	// OrderStatusPending marks a freshly submitted request.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusInProgress marks a request being worked on.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted marks a delivered request.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled marks an abandoned request.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a customer-submitted lead. Customer identity fields are written
// once at submission and never mutated afterwards.
type Order struct {
	ID           string
	CustomerName string
	Email        string
	WhatsApp     string
	ProjectType  string
	Category     string
	Description  string
	Budget       string
	Timeline     string
	Status       OrderStatus
	AssignedTo   string
	Priority     string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FormField is one entry of a reorderable dynamic form.
type FormField struct {
	ID          string
	Label       string
	Value       string
	Type        string
	Required    bool
	Order       int
	Placeholder string
	Icon        string
}

// ReceiptRecord is the flat payload handed to the external PDF renderer.
// The core only assembles it; rendering is outside this module.
type ReceiptRecord struct {
	OrderID        string
	OrderDate      time.Time
	PlanName       string
	PriceFormatted string
	TrialDays      int
	Promotion      Promotion
	CustomerName   string
	CustomerEmail  string
}
