package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domain "github.com/lumina-studio/api/internal/domain"
)

const defaultAutomationTimeout = 30 * time.Second

// AutomationProvider is one interchangeable LLM backend.
type AutomationProvider struct {
	Name     string
	Endpoint string
	APIKey   string
}

// AutomationServiceDeps bundles dependencies for the automation proxy.
type AutomationServiceDeps struct {
	Providers []AutomationProvider
	Client    *http.Client
	Timeout   time.Duration
}

type automationService struct {
	providers map[string]AutomationProvider
	primary   string
	client    *http.Client
	validate  *validator.Validate
}

// providerResponse is the wire shape every provider answers with.
type providerResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewAutomationService wires the automation proxy over the configured
// providers. The first provider is the default target.
func NewAutomationService(deps AutomationServiceDeps) (AutomationService, error) {
	providers := make(map[string]AutomationProvider, len(deps.Providers))
	primary := ""
	for _, provider := range deps.Providers {
		name := strings.ToLower(strings.TrimSpace(provider.Name))
		if name == "" || strings.TrimSpace(provider.Endpoint) == "" {
			continue
		}
		provider.Name = name
		providers[name] = provider
		if primary == "" {
			primary = name
		}
	}
	if len(providers) == 0 {
		return nil, ErrAutomationNotConfigured
	}

	client := deps.Client
	if client == nil {
		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = defaultAutomationTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &automationService{
		providers: providers,
		primary:   primary,
		client:    client,
		validate:  validator.New(),
	}, nil
}

// Run validates the command and forwards it to the selected provider. A
// success=false answer surfaces as a user-facing error; no retry is attempted.
func (s *automationService) Run(ctx context.Context, cmd AutomationCommand) (string, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return "", domain.NewValidationError(firstValidationField(err), "missing or malformed value")
	}

	name := strings.ToLower(strings.TrimSpace(cmd.Provider))
	if name == "" {
		name = s.primary
	}
	provider, ok := s.providers[name]
	if !ok {
		return "", domain.NewValidationError("provider", fmt.Sprintf("unknown provider %q", cmd.Provider))
	}

	payload, err := json.Marshal(struct {
		Type        string         `json:"type"`
		Prompt      string         `json:"prompt"`
		Context     map[string]any `json:"context,omitempty"`
		MaxTokens   int            `json:"maxTokens,omitempty"`
		Temperature float64        `json:"temperature,omitempty"`
	}{
		Type:        cmd.Type,
		Prompt:      cmd.Prompt,
		Context:     cmd.Context,
		MaxTokens:   cmd.MaxTokens,
		Temperature: cmd.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("automation: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("automation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewPersistenceError("automation."+provider.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.NewPersistenceError("automation."+provider.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewPersistenceError("automation."+provider.Name,
			fmt.Errorf("provider answered %d", resp.StatusCode))
	}

	var decoded providerResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", domain.NewPersistenceError("automation."+provider.Name, err)
	}
	if !decoded.Success {
		reason := strings.TrimSpace(decoded.Error)
		if reason == "" {
			reason = "provider rejected the request"
		}
		return "", errors.New(reason)
	}
	return decoded.Data, nil
}
