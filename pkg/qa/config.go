package qa

// Config controls which rules are enabled, their urgency and their options.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// UrgencyOverrides changes the default urgency of rules
	UrgencyOverrides map[string]Urgency

	// RuleOptions holds per-rule tunables keyed by rule ID
	RuleOptions map[string]map[string]any
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:    make(map[string]bool),
		UrgencyOverrides: make(map[string]Urgency),
		RuleOptions:      make(map[string]map[string]any),
	}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[ruleID]
}

// GetUrgency returns the urgency for a rule, applying any override.
func (c *Config) GetUrgency(ruleID string, defaultUrgency Urgency) Urgency {
	if c != nil {
		if u, ok := c.UrgencyOverrides[ruleID]; ok && u != UrgencyNone {
			return u
		}
	}
	return defaultUrgency
}

// GetRuleOptions returns the options configured for a rule, or nil.
func (c *Config) GetRuleOptions(ruleID string) map[string]any {
	if c == nil {
		return nil
	}
	return c.RuleOptions[ruleID]
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// SetUrgency overrides the urgency for a rule.
func (c *Config) SetUrgency(ruleID string, urgency Urgency) *Config {
	c.UrgencyOverrides[ruleID] = urgency
	return c
}

// SetOptions replaces the options for a rule.
func (c *Config) SetOptions(ruleID string, opts map[string]any) *Config {
	c.RuleOptions[ruleID] = opts
	return c
}
