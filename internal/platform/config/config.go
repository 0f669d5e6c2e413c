package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultEnvironment  = "local"

	defaultMaxActivePlans    = 3
	defaultAutomationTimeout = 30 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Firestore   FirestoreConfig
	Catalog     CatalogConfig
	Automation  AutomationConfig
	Events      EventsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores document store parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// CatalogConfig tunes the catalog business rules and refresh policy.
type CatalogConfig struct {
	// MaxActivePlans caps how many plans may be publicly active at once.
	MaxActivePlans int
	// RefetchAfterWrite re-lists the collection after every mutation instead
	// of trusting the locally patched copy.
	RefetchAfterWrite bool
}

// AutomationProvider describes one interchangeable LLM automation backend.
type AutomationProvider struct {
	Name      string
	Endpoint  string
	APIKeyRef string
}

// AutomationConfig configures the outbound LLM automation proxy.
type AutomationConfig struct {
	Primary   AutomationProvider
	Secondary AutomationProvider
	Timeout   time.Duration
}

// EventsConfig configures the optional catalog change-event publisher.
type EventsConfig struct {
	ProjectID string
	TopicID   string
}

// Load builds the Config from the process environment, optionally seeded from
// a .env file. Environment variables always win over file entries.
func Load() (Config, error) {
	fileVals, err := readEnvFile(envFilePath())
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(fileVals[key])
	}

	cfg := Config{
		Environment: valueOr(lookup("APP_ENV"), defaultEnvironment),
		Server: ServerConfig{
			Port:         valueOr(lookup("PORT"), defaultPort),
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		Firestore: FirestoreConfig{
			ProjectID:    lookup("FIRESTORE_PROJECT_ID"),
			EmulatorHost: lookup("FIRESTORE_EMULATOR_HOST"),
		},
		Catalog: CatalogConfig{
			MaxActivePlans:    defaultMaxActivePlans,
			RefetchAfterWrite: true,
		},
		Automation: AutomationConfig{
			Primary: AutomationProvider{
				Name:      valueOr(lookup("AUTOMATION_PRIMARY_NAME"), "primary"),
				Endpoint:  lookup("AUTOMATION_PRIMARY_ENDPOINT"),
				APIKeyRef: lookup("AUTOMATION_PRIMARY_API_KEY"),
			},
			Secondary: AutomationProvider{
				Name:      valueOr(lookup("AUTOMATION_SECONDARY_NAME"), "secondary"),
				Endpoint:  lookup("AUTOMATION_SECONDARY_ENDPOINT"),
				APIKeyRef: lookup("AUTOMATION_SECONDARY_API_KEY"),
			},
			Timeout: defaultAutomationTimeout,
		},
		Events: EventsConfig{
			ProjectID: lookup("EVENTS_PROJECT_ID"),
			TopicID:   lookup("EVENTS_TOPIC_ID"),
		},
	}

	if v := lookup("SERVER_READ_TIMEOUT"); v != "" {
		if cfg.Server.ReadTimeout, err = parseDuration("SERVER_READ_TIMEOUT", v); err != nil {
			return Config{}, err
		}
	}
	if v := lookup("SERVER_WRITE_TIMEOUT"); v != "" {
		if cfg.Server.WriteTimeout, err = parseDuration("SERVER_WRITE_TIMEOUT", v); err != nil {
			return Config{}, err
		}
	}
	if v := lookup("SERVER_IDLE_TIMEOUT"); v != "" {
		if cfg.Server.IdleTimeout, err = parseDuration("SERVER_IDLE_TIMEOUT", v); err != nil {
			return Config{}, err
		}
	}
	if v := lookup("CATALOG_MAX_ACTIVE_PLANS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("config: CATALOG_MAX_ACTIVE_PLANS must be a positive integer, got %q", v)
		}
		cfg.Catalog.MaxActivePlans = n
	}
	if v := lookup("CATALOG_REFETCH_AFTER_WRITE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: CATALOG_REFETCH_AFTER_WRITE must be a boolean, got %q", v)
		}
		cfg.Catalog.RefetchAfterWrite = b
	}
	if v := lookup("AUTOMATION_TIMEOUT"); v != "" {
		if cfg.Automation.Timeout, err = parseDuration("AUTOMATION_TIMEOUT", v); err != nil {
			return Config{}, err
		}
	}

	if cfg.Firestore.ProjectID == "" && cfg.Firestore.EmulatorHost == "" {
		if env := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT")); env != "" {
			cfg.Firestore.ProjectID = env
		}
	}

	return cfg, nil
}

// Validate reports configuration problems that would prevent startup.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("config: server port is required")
	}
	if c.Firestore.ProjectID == "" && c.Firestore.EmulatorHost == "" {
		return fmt.Errorf("config: firestore project id or emulator host is required")
	}
	if c.Catalog.MaxActivePlans < 1 {
		return fmt.Errorf("config: max active plans must be at least 1")
	}
	return nil
}

func envFilePath() string {
	if path := strings.TrimSpace(os.Getenv("ENV_FILE")); path != "" {
		return path
	}
	return defaultEnvFile
}

// readEnvFile parses KEY=VALUE lines; missing files are not an error.
func readEnvFile(path string) (map[string]string, error) {
	values := map[string]string{}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
