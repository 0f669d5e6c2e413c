package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	domain "github.com/lumina-studio/api/internal/domain"
	pfirestore "github.com/lumina-studio/api/internal/platform/firestore"
	"github.com/lumina-studio/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists customer-submitted leads in Firestore.
type OrderRepository struct {
	coll  *pfirestore.Collection[orderDocument]
	clock func() time.Time
	idGen func() string
}

// OrderRepositoryOption customises repository construction.
type OrderRepositoryOption func(*OrderRepository)

// WithOrderClock overrides the clock used for injected timestamps.
func WithOrderClock(clock func() time.Time) OrderRepositoryOption {
	return func(r *OrderRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider, opts ...OrderRepositoryOption) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	repo := &OrderRepository{
		coll:  pfirestore.NewCollection[orderDocument](provider, orderCollection, nil, nil),
		clock: time.Now,
		idGen: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// List returns every order in store-native order.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	docs, err := r.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.coll.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Create persists a freshly submitted lead and returns it exactly as stored,
// identifier and timestamps included.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = r.idGen()
	}
	now := r.clock().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if _, err := r.coll.Set(ctx, order.ID, orderDocumentFrom(order)); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// UpdateAdmin mutates administrative fields only. Customer identity fields
// are never part of the patch.
func (r *OrderRepository) UpdateAdmin(ctx context.Context, orderID string, patch repositories.OrderAdminPatch) error {
	var updates []firestore.Update
	add := func(path string, value any) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.AssignedTo != nil {
		add("assignedTo", *patch.AssignedTo)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	add("updatedAt", r.clock().UTC())
	_, err := r.coll.Update(ctx, orderID, updates)
	return err
}

// Delete removes the order document. Missing documents are a no-op.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.coll.Delete(ctx, orderID)
}

// Watch subscribes to the order collection push feed.
func (r *OrderRepository) Watch(ctx context.Context, onChange func([]domain.Order), onError func(error)) (repositories.StopWatch, error) {
	if onChange == nil {
		return nil, errors.New("order repository: change handler is required")
	}
	stop, err := r.coll.Watch(ctx, nil, func(docs []pfirestore.Document[orderDocument]) {
		orders := make([]domain.Order, 0, len(docs))
		for _, doc := range docs {
			orders = append(orders, doc.Data.toDomain(doc.ID))
		}
		onChange(orders)
	}, onError)
	if err != nil {
		return nil, err
	}
	return repositories.StopWatch(stop), nil
}

type orderDocument struct {
	CustomerName string    `firestore:"customerName"`
	Email        string    `firestore:"email"`
	WhatsApp     string    `firestore:"whatsapp"`
	ProjectType  string    `firestore:"projectType"`
	Category     string    `firestore:"category"`
	Description  string    `firestore:"description"`
	Budget       string    `firestore:"budget"`
	Timeline     string    `firestore:"timeline"`
	Status       string    `firestore:"status"`
	AssignedTo   string    `firestore:"assignedTo"`
	Priority     string    `firestore:"priority"`
	Notes        string    `firestore:"notes"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func orderDocumentFrom(order domain.Order) orderDocument {
	return orderDocument{
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

func (d orderDocument) toDomain(id string) domain.Order {
	return domain.Order{
		ID:           id,
		CustomerName: d.CustomerName,
		Email:        d.Email,
		WhatsApp:     d.WhatsApp,
		ProjectType:  d.ProjectType,
		Category:     d.Category,
		Description:  d.Description,
		Budget:       d.Budget,
		Timeline:     d.Timeline,
		Status:       domain.OrderStatus(d.Status),
		AssignedTo:   d.AssignedTo,
		Priority:     d.Priority,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
