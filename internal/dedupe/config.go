package dedupe

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FieldGroup names a set of interchangeable columns checked together for
// duplicate values. Keys are core_lead column names.
type FieldGroup struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

type Config struct {
	Groups []FieldGroup `yaml:"groups"`
	// Kinds maps a column to how its raw values normalize. Columns absent
	// from the map are plain text.
	Kinds map[string]FieldKind `yaml:"kinds"`
	// ChunkSize bounds both ingest inserts and detector scans.
	ChunkSize int `yaml:"chunk_size"`
	// FlushEvery is the accumulator flush threshold: pending distinct values
	// are resolved against the store once this many pile up.
	FlushEvery int `yaml:"flush_every"`
}

const (
	DefaultChunkSize  = 500
	DefaultFlushEvery = 2000
)

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// matchableColumns is the closed set of core_lead columns a group may scan.
// Group keys are interpolated into SQL, so membership here is what makes
// that safe.
var matchableColumns = map[string]bool{
	"source_lead_id":     true,
	"categories":         true,
	"referrer":           true,
	"first_name":         true,
	"surname":            true,
	"country":            true,
	"private_email_1":    true,
	"private_email_2":    true,
	"company_email_1":    true,
	"company_email_2":    true,
	"home_telephone_1":   true,
	"home_telephone_2":   true,
	"mobile_telephone_1": true,
	"mobile_telephone_2": true,
	"office_phone_1":     true,
	"office_phone_2":     true,
	"verified_time":      true,
	"decision_maker":     true,
}

// DefaultConfig matches every email-like column against every other and every
// phone-like column against every other, the way the source spreadsheets
// spread contact details across several columns.
func DefaultConfig() Config {
	return Config{
		Groups: []FieldGroup{
			{Name: "email", Keys: []string{"private_email_1", "private_email_2", "company_email_1", "company_email_2"}},
			{Name: "telephone", Keys: []string{"home_telephone_1", "home_telephone_2", "mobile_telephone_1", "mobile_telephone_2", "office_phone_1", "office_phone_2"}},
		},
		Kinds: map[string]FieldKind{
			"decision_maker": FieldBoolean,
			"verified_time":  FieldTime,
		},
		ChunkSize:  DefaultChunkSize,
		FlushEvery: DefaultFlushEvery,
	}
}

// LoadConfig reads a yaml override file, falling back to DefaultConfig when
// path is empty.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read dedupe config: %w", err)
	}
	cfg := Config{}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse dedupe config: %w", err)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultFlushEvery
	}
	if cfg.Kinds == nil {
		cfg.Kinds = map[string]FieldKind{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("dedupe config: no field groups")
	}
	seen := map[string]bool{}
	for _, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("dedupe config: group with empty name")
		}
		if seen[g.Name] {
			return fmt.Errorf("dedupe config: duplicate group name %q", g.Name)
		}
		seen[g.Name] = true
		if len(g.Keys) == 0 {
			return fmt.Errorf("dedupe config: group %q has no keys", g.Name)
		}
		for _, k := range g.Keys {
			if !columnPattern.MatchString(k) {
				return fmt.Errorf("dedupe config: group %q key %q is not a valid column name", g.Name, k)
			}
			if !matchableColumns[k] {
				return fmt.Errorf("dedupe config: group %q key %q is not a matchable column", g.Name, k)
			}
		}
	}
	return nil
}

// KindOf returns how values of the given column normalize.
func (c Config) KindOf(column string) FieldKind {
	if k, ok := c.Kinds[column]; ok {
		return k
	}
	return FieldText
}
