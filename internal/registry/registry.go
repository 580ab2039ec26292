// Package registry holds the static site catalogue: one declarative
// extraction config per monitored site. Configs are loaded once at startup
// and read-only afterwards.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Strategy selects how a site's pages are obtained.
type Strategy string

const (
	StrategyStatic  Strategy = "static"
	StrategyDynamic Strategy = "dynamic"
)

// SelectorAlt is a single selector alternative. Attr is empty for text
// extraction; non-empty means "read this attribute from the first match".
type SelectorAlt struct {
	Selector string
	Attr     string
}

// FieldSelector is an ordered list of selector alternatives for one field.
// The first alternative yielding a non-empty value wins, which tolerates
// markup drift across paginated or A/B-served pages.
type FieldSelector struct {
	Alternatives []SelectorAlt
}

// ParseSelector parses the compact selector syntax used in site configs:
// comma-separated alternatives, each optionally suffixed with "@attr" to
// switch to attribute extraction (e.g. "h3 a@href, h2 a@href").
func ParseSelector(raw string) FieldSelector {
	var fs FieldSelector
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		alt := SelectorAlt{Selector: part}
		if at := strings.LastIndex(part, "@"); at > 0 {
			alt.Selector = strings.TrimSpace(part[:at])
			alt.Attr = strings.TrimSpace(part[at+1:])
		}
		fs.Alternatives = append(fs.Alternatives, alt)
	}
	return fs
}

// LoginSelectors locate the credential form controls on a login page.
type LoginSelectors struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Submit   string `yaml:"submit"`
}

// LoginConfig describes an optional pre-scrape login sequence for sites
// that gate listings behind an account.
type LoginConfig struct {
	Username  string         `yaml:"username"`
	Password  string         `yaml:"password"`
	Selectors LoginSelectors `yaml:"selectors"`
}

// Filters are declarative hints applied after extraction.
type Filters struct {
	Country  string `yaml:"country,omitempty"`
	Location string `yaml:"location,omitempty"`
}

// SiteConfig is one site's immutable extraction config.
type SiteConfig struct {
	Key        string   `validate:"required"`
	Name       string   `validate:"required"`
	URL        string   `validate:"required,url"`
	Strategy   Strategy `validate:"required,oneof=static dynamic"`
	SearchPath string

	// Container matches the repeated listing element. It may be a CSS group
	// ("article, .job-item"); every element matching any member is treated
	// as one record container.
	Container string `validate:"required"`

	// Fields maps record field names to their selectors within a container.
	Fields map[string]FieldSelector `validate:"required,min=1"`

	Login    *LoginConfig
	MaxPages int `validate:"min=0"`
	Filters  Filters
}

// TargetURL joins the base URL and search path.
func (c SiteConfig) TargetURL() string {
	if c.SearchPath == "" {
		return c.URL
	}
	return strings.TrimRight(c.URL, "/") + c.SearchPath
}

// Registry is the loaded site catalogue.
type Registry struct {
	sites map[string]SiteConfig
}

// New builds a registry from the given configs, validating each one.
func New(configs []SiteConfig) (*Registry, error) {
	v := validator.New()
	sites := make(map[string]SiteConfig, len(configs))
	for _, cfg := range configs {
		if err := v.Struct(cfg); err != nil {
			return nil, fmt.Errorf("invalid config for site %q: %w", cfg.Key, err)
		}
		if _, dup := sites[cfg.Key]; dup {
			return nil, fmt.Errorf("duplicate site key %q", cfg.Key)
		}
		sites[cfg.Key] = cfg
	}
	return &Registry{sites: sites}, nil
}

// Get returns the config for a site key.
func (r *Registry) Get(key string) (SiteConfig, error) {
	cfg, ok := r.sites[key]
	if !ok {
		return SiteConfig{}, fmt.Errorf("unknown site key %q", key)
	}
	return cfg, nil
}

// Keys returns all site keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.sites))
	for k := range r.sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns all site configs ordered by key.
func (r *Registry) All() []SiteConfig {
	configs := make([]SiteConfig, 0, len(r.sites))
	for _, k := range r.Keys() {
		configs = append(configs, r.sites[k])
	}
	return configs
}

// siteYAML is the on-disk shape of one site entry.
type siteYAML struct {
	Name       string            `yaml:"name"`
	URL        string            `yaml:"url"`
	Strategy   string            `yaml:"strategy"`
	SearchPath string            `yaml:"search_path"`
	Selectors  map[string]string `yaml:"selectors"`
	Login      *LoginConfig      `yaml:"login"`
	MaxPages   int               `yaml:"max_pages"`
	Filters    Filters           `yaml:"filters"`
}

type registryYAML struct {
	Sites map[string]siteYAML `yaml:"sites"`
}

// LoadFile reads a site registry from a YAML file. The "container" selector
// entry is required; all other selector entries become record fields.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates a YAML site registry.
func FromYAML(data []byte) (*Registry, error) {
	var raw registryYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	configs := make([]SiteConfig, 0, len(raw.Sites))
	for key, site := range raw.Sites {
		cfg := SiteConfig{
			Key:        key,
			Name:       site.Name,
			URL:        site.URL,
			Strategy:   Strategy(site.Strategy),
			SearchPath: site.SearchPath,
			Fields:     make(map[string]FieldSelector),
			Login:      site.Login,
			MaxPages:   site.MaxPages,
			Filters:    site.Filters,
		}
		for field, sel := range site.Selectors {
			if field == "container" {
				cfg.Container = sel
				continue
			}
			cfg.Fields[field] = ParseSelector(sel)
		}
		configs = append(configs, cfg)
	}

	return New(configs)
}
