package forwards

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/* Loader manages forward rules from forwards.yaml
 * Provides in-memory lookup for fast access; the rule set is read-only
 * after startup and safe to share across concurrent requests
 */

// Config represents the structure of forwards.yaml
type Config struct {
	Forwards []RuleConfig `yaml:"forwards"`
}

// RuleConfig represents a single rule in the YAML file
type RuleConfig struct {
	Line   string `yaml:"line"`
	Target string `yaml:"target"`
}

// Loader holds the loaded rules
type Loader struct {
	rules map[string]*Rule
}

// NewLoader creates a new rule loader
func NewLoader() *Loader {
	return &Loader{
		rules: make(map[string]*Rule),
	}
}

// Load reads and parses the forwards.yaml file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading forwards file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing forwards YAML: %w", err)
	}

	for _, rc := range config.Forwards {
		rule := &Rule{
			Line:   rc.Line,
			Target: rc.Target,
		}

		if err := rule.Validate(); err != nil {
			return fmt.Errorf("validating rule: %w", err)
		}

		if _, exists := l.rules[rule.Line]; exists {
			return fmt.Errorf("duplicate rule for line %s", rule.Line)
		}

		l.rules[rule.Line] = rule
	}

	return nil
}

// Resolve returns the forward target for a receiving line.
// The second return is false when no rule is configured for the line.
func (l *Loader) Resolve(line string) (string, bool) {
	rule, ok := l.rules[line]
	if !ok {
		return "", false
	}
	return rule.Target, true
}

// List returns all loaded rules
func (l *Loader) List() []*Rule {
	rules := make([]*Rule, 0, len(l.rules))
	for _, rule := range l.rules {
		rules = append(rules, rule)
	}
	return rules
}
