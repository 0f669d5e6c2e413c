package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	refScheme       = "secret://"
	defaultVersion  = "latest"
	metricNamespace = "github.com/lumina-studio/api/internal/platform/secrets"
)

var clientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references through Google Secret Manager with an
// in-process cache. Values that are not references pass through unchanged so
// local environments can inject literals.
type Fetcher struct {
	client     accessClient
	ownsClient bool
	logger     *zap.Logger
	projectID  string

	mu    sync.RWMutex
	cache map[string]cacheEntry

	latency        metric.Float64Histogram
	latencyEnabled bool
}

type cacheEntry struct {
	value     string
	fetchedAt time.Time
}

// Option customises Fetcher construction.
type Option func(*Fetcher)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithClient injects a pre-built Secret Manager client, mainly for tests.
func WithClient(client accessClient) Option {
	return func(f *Fetcher) {
		f.client = client
		f.ownsClient = false
	}
}

// NewFetcher constructs a Fetcher resolving secrets in the given project.
func NewFetcher(ctx context.Context, projectID string, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger:    zap.NewNop(),
		projectID: strings.TrimSpace(projectID),
		cache:     map[string]cacheEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.client == nil {
		client, err := clientFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		f.client = client
		f.ownsClient = true
	}

	meter := otel.GetMeterProvider().Meter(metricNamespace)
	if histogram, err := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of Secret Manager fetches"),
	); err == nil {
		f.latency = histogram
		f.latencyEnabled = true
	}

	return f, nil
}

// Resolve returns the secret value for a secret://name[@version] reference.
// Non-reference values are returned verbatim.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	if f == nil {
		return "", errors.New("secrets: fetcher is nil")
	}

	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, refScheme) {
		return trimmed, nil
	}

	name, version := splitRef(strings.TrimPrefix(trimmed, refScheme))
	if name == "" {
		return "", fmt.Errorf("secrets: invalid reference %q", ref)
	}
	if f.projectID == "" {
		return "", errors.New("secrets: project id is required to resolve references")
	}

	cacheKey := name + "@" + version
	f.mu.RLock()
	entry, hit := f.cache[cacheKey]
	f.mu.RUnlock()
	if hit {
		return entry.value, nil
	}

	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", f.projectID, name, version)
	start := time.Now()
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if f.latencyEnabled {
		f.latency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("secret", name), attribute.Bool("error", err != nil)))
	}
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}

	value := string(resp.GetPayload().GetData())
	f.mu.Lock()
	f.cache[cacheKey] = cacheEntry{value: value, fetchedAt: time.Now()}
	f.mu.Unlock()

	f.logger.Debug("secret resolved", zap.String("secret", name), zap.String("version", version))
	return value, nil
}

// Close releases the underlying client when owned by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}

func splitRef(ref string) (name, version string) {
	name = strings.TrimSpace(ref)
	version = defaultVersion
	if idx := strings.LastIndex(name, "@"); idx >= 0 {
		if v := strings.TrimSpace(name[idx+1:]); v != "" {
			version = v
		}
		name = strings.TrimSpace(name[:idx])
	}
	return name, version
}
