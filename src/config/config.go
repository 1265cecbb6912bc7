// Package config loads and validates the service configuration document.
// The loaded Config is read-only after Load; everything downstream receives
// it by explicit injection.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/go-chatstream/src/personas"
)

// Kind identifies how a provider's endpoint is spoken to. The set is
// closed: adding a backend means adding a constant here and a matching
// constructor in src/models.
type Kind string

const (
	// KindOpenAI covers any OpenAI-compatible chat completion endpoint.
	KindOpenAI Kind = "openai"
	// KindOllama is the locally hosted backend with its native API.
	KindOllama Kind = "ollama"
	// KindAnthropic is the Anthropic Messages API.
	KindAnthropic Kind = "anthropic"
	// KindGemini is the Google Generative AI API.
	KindGemini Kind = "gemini"
)

func (k Kind) valid() bool {
	switch k {
	case KindOpenAI, KindOllama, KindAnthropic, KindGemini:
		return true
	}
	return false
}

// ConfigurationError reports an invalid or incomplete provider setup.
// It is fatal to the request (or the process, when raised at load time).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return e.Reason }

// Errorf builds a ConfigurationError from a format string.
func Errorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// Provider describes one configured backend.
type Provider struct {
	Kind         Kind     `yaml:"kind"`
	BaseURL      string   `yaml:"base_url"`
	APIKeyEnv    string   `yaml:"api_key_env"`
	APIKey       string   `yaml:"api_key"`
	Models       []string `yaml:"models"`
	DefaultModel string   `yaml:"default_model"`
}

// HasModel reports whether name appears in the configured model list.
func (p *Provider) HasModel(name string) bool {
	for _, m := range p.Models {
		if m == name {
			return true
		}
	}
	return false
}

// Sanitization configures the HTML cleaning policy. A nil section means
// sanitization is disabled.
type Sanitization struct {
	AllowedTags       []string            `yaml:"allowed_tags"`
	AllowedAttributes map[string][]string `yaml:"allowed_attributes"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr            string `yaml:"addr"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	MaxContextChars int    `yaml:"max_context_chars"`
}

// Files holds the per-file ingestion limits.
type Files struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	Workers      int   `yaml:"workers"`
}

// Config is the root of the configuration document.
type Config struct {
	Providers        map[string]*Provider `yaml:"providers"`
	Personas         *personas.Set        `yaml:"personas"`
	HTMLSanitization *Sanitization        `yaml:"html_sanitization"`
	Server           Server               `yaml:"server"`
	Files            Files                `yaml:"files"`
}

const (
	defaultAddr            = ":8080"
	defaultMaxUploadBytes  = 32 << 20
	defaultMaxContextChars = 50000
	defaultMaxFileBytes    = 10 << 20
)

// Load reads, parses and validates the YAML document at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a raw YAML document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Server.MaxContextChars <= 0 {
		c.Server.MaxContextChars = defaultMaxContextChars
	}
	if c.Files.MaxFileBytes <= 0 {
		c.Files.MaxFileBytes = defaultMaxFileBytes
	}
	if c.Files.Workers <= 0 {
		c.Files.Workers = 1
	}
	for name, p := range c.Providers {
		if p == nil {
			continue
		}
		if p.Kind == "" {
			p.Kind = inferKind(name)
		}
	}
}

// inferKind maps the legacy provider names to their backend kind so that
// existing config documents keep working without an explicit kind field.
func inferKind(name string) Kind {
	switch strings.ToUpper(name) {
	case "IONOS", "GOOGLE", "OPENAI":
		return KindOpenAI
	case "OLLAMA":
		return KindOllama
	case "ANTHROPIC":
		return KindAnthropic
	case "GEMINI":
		return KindGemini
	}
	return ""
}

func (c *Config) validate() error {
	if len(c.Providers) == 0 {
		return Errorf("config: no providers defined")
	}
	if c.Personas.Len() == 0 {
		return Errorf("config: no personas defined")
	}
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		if p == nil {
			return Errorf("config: provider %q: empty definition", name)
		}
		if !p.Kind.valid() {
			return Errorf("config: provider %q: unknown kind %q", name, p.Kind)
		}
	}
	return nil
}

// ProviderNames returns the configured provider names, sorted for
// deterministic iteration.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider looks up a provider by name.
func (c *Config) Provider(name string) (*Provider, bool) {
	p, ok := c.Providers[name]
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
