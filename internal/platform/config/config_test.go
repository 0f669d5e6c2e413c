package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadWithEnv(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"FIRESTORE_PROJECT_ID": "demo-project",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.Catalog.MaxActivePlans != 3 {
		t.Fatalf("expected default cap 3, got %d", cfg.Catalog.MaxActivePlans)
	}
	if !cfg.Catalog.RefetchAfterWrite {
		t.Fatal("expected refetch after write on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"FIRESTORE_PROJECT_ID":         "demo-project",
		"PORT":                         "9090",
		"CATALOG_MAX_ACTIVE_PLANS":     "5",
		"CATALOG_REFETCH_AFTER_WRITE":  "false",
		"AUTOMATION_TIMEOUT":           "45s",
		"AUTOMATION_PRIMARY_ENDPOINT":  "https://llm.example.com/run",
		"AUTOMATION_PRIMARY_API_KEY":   "secret://automation-key",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port override, got %q", cfg.Server.Port)
	}
	if cfg.Catalog.MaxActivePlans != 5 {
		t.Fatalf("expected cap 5, got %d", cfg.Catalog.MaxActivePlans)
	}
	if cfg.Catalog.RefetchAfterWrite {
		t.Fatal("expected refetch after write off")
	}
	if cfg.Automation.Timeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.Automation.Timeout)
	}
	if cfg.Automation.Primary.APIKeyRef != "secret://automation-key" {
		t.Fatalf("unexpected api key ref %q", cfg.Automation.Primary.APIKeyRef)
	}
}

func TestLoadRejectsInvalidCap(t *testing.T) {
	if _, err := loadWithEnv(t, map[string]string{
		"FIRESTORE_PROJECT_ID":     "demo-project",
		"CATALOG_MAX_ACTIVE_PLANS": "0",
	}); err == nil {
		t.Fatal("expected error for zero cap")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "FIRESTORE_PROJECT_ID=file-project\n# comment line\nPORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firestore.ProjectID != "file-project" {
		t.Fatalf("expected project from file, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7100" {
		t.Fatalf("environment must win over file, got %q", cfg.Server.Port)
	}
}

func TestValidateRequiresStoreTarget(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: "8080"}, Catalog: CatalogConfig{MaxActivePlans: 3}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without firestore target")
	}
	cfg.Firestore.EmulatorHost = "localhost:8200"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("emulator host should satisfy validation: %v", err)
	}
}
