// Package dialect holds the static compatibility rule catalogs. Each target
// dialect ships one embedded YAML catalog; the validator stays a generic
// walker and everything dialect-specific lives in the catalog data.
package dialect

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules
var rulesFS embed.FS

// ID names a supported target dialect.
type ID string

const (
	Postgres    ID = "postgres"
	CockroachDB ID = "cockroachdb"
	Nile        ID = "nile"
	DSQL        ID = "dsql"
)

// All lists the supported dialects in a stable order.
func All() []ID {
	return []ID{Postgres, CockroachDB, Nile, DSQL}
}

// IsValid reports whether id names a known dialect.
func IsValid(id ID) bool {
	for _, d := range All() {
		if d == id {
			return true
		}
	}
	return false
}

// Rule is one catalog entry. The populated match fields decide how the
// validator applies it: Types matches column base types, Pattern matches raw
// statements, Limit caps a counted feature, and a bare Feature fires whenever
// the named feature is present.
type Rule struct {
	Code        string   `yaml:"code"`
	Severity    string   `yaml:"severity"`
	Category    string   `yaml:"category,omitempty"`
	Message     string   `yaml:"message"`
	Alternative string   `yaml:"alternative,omitempty"`
	DocsURL     string   `yaml:"docs_url,omitempty"`
	Types       []string `yaml:"types,omitempty"`
	Feature     string   `yaml:"feature,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty"`
	Limit       int      `yaml:"limit,omitempty"`

	// Replacement and Additional describe the mechanical fix the rewriter
	// applies, when one exists.
	Replacement string   `yaml:"replacement,omitempty"`
	Additional  []string `yaml:"additional,omitempty"`
}

// PatternRule is a pattern rule with its regexp compiled.
type PatternRule struct {
	Rule
	Regexp *regexp.Regexp
}

// Catalog is the loaded rule set of one dialect.
type Catalog struct {
	Dialect     ID     `yaml:"dialect"`
	DisplayName string `yaml:"display_name"`
	Rules       []Rule `yaml:"rules"`

	byType    map[string]Rule
	byFeature map[string]Rule
	byLimit   map[string]Rule
	patterns  []PatternRule
}

// Load reads and indexes the embedded catalog for a dialect.
func Load(id ID) (*Catalog, error) {
	if !IsValid(id) {
		return nil, fmt.Errorf("unknown dialect %q (supported: %s)", id, idList())
	}
	raw, err := rulesFS.ReadFile(fmt.Sprintf("rules/%s.yaml", id))
	if err != nil {
		return nil, fmt.Errorf("reading catalog for %s: %w", id, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog for %s: %w", id, err)
	}
	if c.Dialect != id {
		return nil, fmt.Errorf("catalog %s declares dialect %q", id, c.Dialect)
	}
	if err := c.index(); err != nil {
		return nil, fmt.Errorf("indexing catalog for %s: %w", id, err)
	}
	return &c, nil
}

// MustLoad is Load for embedded catalogs that are known-good at build time.
func MustLoad(id ID) *Catalog {
	c, err := Load(id)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) index() error {
	c.byType = make(map[string]Rule)
	c.byFeature = make(map[string]Rule)
	c.byLimit = make(map[string]Rule)

	seen := make(map[string]bool)
	for _, r := range c.Rules {
		if r.Code == "" {
			return fmt.Errorf("rule without a code: %q", r.Message)
		}
		if seen[r.Code] {
			return fmt.Errorf("duplicate rule code %s", r.Code)
		}
		seen[r.Code] = true

		switch r.Severity {
		case "error", "warning", "info":
		default:
			return fmt.Errorf("rule %s has invalid severity %q", r.Code, r.Severity)
		}

		switch {
		case len(r.Types) > 0:
			for _, t := range r.Types {
				key := strings.ToUpper(t)
				if prev, dup := c.byType[key]; dup {
					return fmt.Errorf("type %s claimed by both %s and %s", key, prev.Code, r.Code)
				}
				c.byType[key] = r
			}
		case r.Pattern != "":
			re, err := regexp.Compile("(?is)" + r.Pattern)
			if err != nil {
				return fmt.Errorf("rule %s pattern: %w", r.Code, err)
			}
			c.patterns = append(c.patterns, PatternRule{Rule: r, Regexp: re})
		case r.Limit > 0:
			c.byLimit[r.Feature] = r
		case r.Feature != "":
			c.byFeature[r.Feature] = r
		default:
			return fmt.Errorf("rule %s has no match criteria", r.Code)
		}
	}
	return nil
}

// ForType returns the rule matching a canonical base type, if any.
func (c *Catalog) ForType(base string) (Rule, bool) {
	r, ok := c.byType[strings.ToUpper(base)]
	return r, ok
}

// ForFeature returns the rule for a named feature, if any.
func (c *Catalog) ForFeature(key string) (Rule, bool) {
	r, ok := c.byFeature[key]
	return r, ok
}

// LimitFor returns the limit rule for a counted feature, if any.
func (c *Catalog) LimitFor(key string) (Rule, bool) {
	r, ok := c.byLimit[key]
	return r, ok
}

// PatternRules returns the compiled raw-statement rules.
func (c *Catalog) PatternRules() []PatternRule {
	return c.patterns
}

// Codes returns every rule code in the catalog, sorted.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.Rules))
	for _, r := range c.Rules {
		codes = append(codes, r.Code)
	}
	sort.Strings(codes)
	return codes
}

func idList() string {
	parts := make([]string, 0, len(All()))
	for _, d := range All() {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ", ")
}
