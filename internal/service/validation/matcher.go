package validation

import (
	"regexp"
	"sync"

	"github.com/jwalitptl/validation-api/internal/model"
	"github.com/jwalitptl/validation-api/pkg/logger"
	"github.com/jwalitptl/validation-api/pkg/metrics"
)

// PatternMatcher evaluates one rule against a cleaned candidate value.
// Length bounds are checked before the regex so an obviously-wrong value
// never reaches a potentially expensive pattern. Compiled patterns are
// cached per pattern string.
type PatternMatcher struct {
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
	broken   map[string]bool
}

func NewPatternMatcher(log *logger.Logger, m *metrics.Metrics) *PatternMatcher {
	return &PatternMatcher{
		logger:   log,
		metrics:  m,
		compiled: make(map[string]*regexp.Regexp),
		broken:   make(map[string]bool),
	}
}

// Match reports whether value satisfies the rule. A rule whose pattern does
// not compile never matches; the failure is logged once and must not abort
// evaluation of the remaining rules.
func (m *PatternMatcher) Match(rule *model.ValidationRule, value string) bool {
	if !WithinLengthBounds(rule, value) {
		return false
	}

	re := m.compile(rule)
	if re == nil {
		return false
	}

	return re.MatchString(value)
}

// WithinLengthBounds applies the rule's optional min/max length prefilter.
func WithinLengthBounds(rule *model.ValidationRule, value string) bool {
	if rule.MinLength != nil && len(value) < *rule.MinLength {
		return false
	}
	if rule.MaxLength != nil && len(value) > *rule.MaxLength {
		return false
	}
	return true
}

func (m *PatternMatcher) compile(rule *model.ValidationRule) *regexp.Regexp {
	m.mu.RLock()
	re, ok := m.compiled[rule.Pattern]
	bad := m.broken[rule.Pattern]
	m.mu.RUnlock()
	if ok {
		return re
	}
	if bad {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.compiled[rule.Pattern]; ok {
		return re
	}
	if m.broken[rule.Pattern] {
		return nil
	}

	// Rules must fully match the cleaned input. The group keeps alternations
	// inside the original pattern from escaping the anchors.
	re, err := regexp.Compile(`\A(?:` + rule.Pattern + `)\z`)
	if err != nil {
		m.broken[rule.Pattern] = true
		m.metrics.MalformedRules.Inc()
		m.logger.Warn("skipping rule with malformed pattern", "rule_key", rule.Key, "pattern", rule.Pattern, "error", err.Error())
		return nil
	}

	m.compiled[rule.Pattern] = re
	return re
}
