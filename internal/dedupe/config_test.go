package dedupe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if len(cfg.Groups) != 2 {
		t.Fatalf("expected 2 default groups, got %d", len(cfg.Groups))
	}
}

func TestConfigValidate_RejectsUnknownColumn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groups = append(cfg.Groups, FieldGroup{Name: "bad", Keys: []string{"not_a_matchable_column"}})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown column")
	}
}

func TestConfigValidate_RejectsEmptyGroup(t *testing.T) {
	cfg := Config{
		Groups:     []FieldGroup{{Name: "email"}},
		Kinds:      map[string]FieldKind{},
		ChunkSize:  DefaultChunkSize,
		FlushEvery: DefaultFlushEvery,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for group without keys")
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if len(cfg.Groups) == 0 {
		t.Fatal("expected default groups")
	}
}

func TestLoadConfig_YAMLOverride(t *testing.T) {
	raw := `
groups:
  - name: email
    keys: [private_email_1, company_email_1]
chunk_size: 100
`
	path := filepath.Join(t.TempDir(), "groups.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Groups) != 1 || cfg.Groups[0].Name != "email" {
		t.Fatalf("unexpected groups: %+v", cfg.Groups)
	}
	if cfg.ChunkSize != 100 {
		t.Fatalf("chunk_size = %d, want 100", cfg.ChunkSize)
	}
	if cfg.FlushEvery != DefaultFlushEvery {
		t.Fatalf("flush_every should default, got %d", cfg.FlushEvery)
	}
}

func TestLoadConfig_RejectsBadColumn(t *testing.T) {
	raw := `
groups:
  - name: email
    keys: ["private_email_1; DROP TABLE core_lead"]
`
	path := filepath.Join(t.TempDir(), "groups.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for malicious column name")
	}
}
