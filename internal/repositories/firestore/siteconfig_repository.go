package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/lumina-studio/api/internal/domain"
	pfirestore "github.com/lumina-studio/api/internal/platform/firestore"
	"github.com/lumina-studio/api/internal/repositories"
)

const (
	siteConfigCollection = "siteConfig"
	// siteConfigDocID keys the singleton document. A fixed identifier rather
	// than a process-level singleton keeps parallel test instances isolated.
	siteConfigDocID = "main"
)

// SiteConfigRepository owns the single site configuration document.
type SiteConfigRepository struct {
	provider *pfirestore.Provider
	coll     *pfirestore.Collection[siteConfigDocument]
	clock    func() time.Time
}

// SiteConfigRepositoryOption customises repository construction.
type SiteConfigRepositoryOption func(*SiteConfigRepository)

// WithSiteConfigClock overrides the clock used for the merge timestamp.
func WithSiteConfigClock(clock func() time.Time) SiteConfigRepositoryOption {
	return func(r *SiteConfigRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewSiteConfigRepository constructs a Firestore-backed configuration repository.
func NewSiteConfigRepository(provider *pfirestore.Provider, opts ...SiteConfigRepositoryOption) (*SiteConfigRepository, error) {
	if provider == nil {
		return nil, errors.New("site config repository requires firestore provider")
	}
	repo := &SiteConfigRepository{
		provider: provider,
		coll:     pfirestore.NewCollection[siteConfigDocument](provider, siteConfigCollection, nil, nil),
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// Get fetches the singleton configuration document.
func (r *SiteConfigRepository) Get(ctx context.Context) (domain.SiteConfig, error) {
	doc, err := r.coll.Get(ctx, siteConfigDocID)
	if err != nil {
		return domain.SiteConfig{}, err
	}
	return doc.Data.toDomain(), nil
}

// Merge applies the patch onto the singleton document, creating it when
// absent. The update timestamp is refreshed on every merge.
func (r *SiteConfigRepository) Merge(ctx context.Context, patch repositories.SiteConfigPatch) error {
	docRef, err := r.coll.DocumentRef(ctx, siteConfigDocID)
	if err != nil {
		return err
	}

	data := map[string]any{
		"updatedAt": r.clock().UTC(),
	}
	if patch.Phone != nil {
		data["phone"] = *patch.Phone
	}
	if patch.WhatsApp != nil {
		data["whatsapp"] = *patch.WhatsApp
	}
	if patch.Discord != nil {
		data["discord"] = *patch.Discord
	}
	if patch.Email != nil {
		data["email"] = *patch.Email
	}
	if patch.Instagram != nil {
		data["instagram"] = *patch.Instagram
	}
	if patch.Categories != nil {
		data["categories"] = categoryDocumentsFrom(*patch.Categories)
	}
	if patch.Types != nil {
		data["types"] = typeDocumentsFrom(*patch.Types)
	}

	if _, err := docRef.Set(ctx, data, firestore.MergeAll); err != nil {
		return pfirestore.WrapError("siteConfig.merge", err)
	}
	return nil
}

// Watch subscribes to the singleton document push feed.
func (r *SiteConfigRepository) Watch(ctx context.Context, onChange func(domain.SiteConfig), onError func(error)) (repositories.StopWatch, error) {
	if onChange == nil {
		return nil, errors.New("site config repository: change handler is required")
	}

	docRef, err := r.coll.DocumentRef(ctx, siteConfigDocID)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	snapshots := docRef.Snapshots(watchCtx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				cancel()
				if errors.Is(err, context.Canceled) || errors.Is(watchCtx.Err(), context.Canceled) {
					return
				}
				if onError != nil {
					onError(pfirestore.WrapError("siteConfig.watch", err))
				}
				return
			}
			if !snap.Exists() {
				onChange(domain.SiteConfig{})
				continue
			}
			var doc siteConfigDocument
			if err := snap.DataTo(&doc); err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(doc.toDomain())
		}
	}()

	return func() { cancel() }, nil
}

type siteConfigDocument struct {
	Phone      string                       `firestore:"phone"`
	WhatsApp   string                       `firestore:"whatsapp"`
	Discord    string                       `firestore:"discord"`
	Email      string                       `firestore:"email"`
	Instagram  string                       `firestore:"instagram"`
	Categories []categoryDefinitionDocument `firestore:"categories"`
	Types      []typeDefinitionDocument     `firestore:"types"`
	UpdatedAt  time.Time                    `firestore:"updatedAt"`
}

type categoryDefinitionDocument struct {
	ID     string `firestore:"id"`
	Label  string `firestore:"label"`
	Active bool   `firestore:"active"`
}

type typeDefinitionDocument struct {
	ID     string `firestore:"id"`
	Label  string `firestore:"label"`
	Active bool   `firestore:"active"`
}

func (d siteConfigDocument) toDomain() domain.SiteConfig {
	categories := make([]domain.CategoryDefinition, 0, len(d.Categories))
	for _, c := range d.Categories {
		categories = append(categories, domain.CategoryDefinition(c))
	}
	types := make([]domain.TypeDefinition, 0, len(d.Types))
	for _, t := range d.Types {
		types = append(types, domain.TypeDefinition(t))
	}
	return domain.SiteConfig{
		Phone:      d.Phone,
		WhatsApp:   d.WhatsApp,
		Discord:    d.Discord,
		Email:      d.Email,
		Instagram:  d.Instagram,
		Categories: categories,
		Types:      types,
		UpdatedAt:  d.UpdatedAt,
	}
}

func categoryDocumentsFrom(defs []domain.CategoryDefinition) []categoryDefinitionDocument {
	docs := make([]categoryDefinitionDocument, 0, len(defs))
	for _, def := range defs {
		docs = append(docs, categoryDefinitionDocument(def))
	}
	return docs
}

func typeDocumentsFrom(defs []domain.TypeDefinition) []typeDefinitionDocument {
	docs := make([]typeDefinitionDocument, 0, len(defs))
	for _, def := range defs {
		docs = append(docs, typeDefinitionDocument(def))
	}
	return docs
}

var _ repositories.SiteConfigRepository = (*SiteConfigRepository)(nil)
