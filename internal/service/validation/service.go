package validation

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/validation-api/internal/model"
	"github.com/jwalitptl/validation-api/pkg/logger"
	"github.com/jwalitptl/validation-api/pkg/messaging"
	"github.com/jwalitptl/validation-api/pkg/metrics"
)

const (
	msgRequired      = "This field is required"
	msgNotConfigured = "Validation is not configured for this field, please contact support"

	// InvalidationChannel is the pub/sub channel other instances listen on
	// for cache invalidation events.
	InvalidationChannel = "validation:cache:invalidate"
)

// emailFallbackPattern is used only when no email rules are configured.
// Every other field kind fails closed in that situation; email passing on
// this fixed pattern is a deliberate backward-compatibility carve-out and
// should not be extended to other kinds.
var emailFallbackPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Service is the validation engine façade. It is stateless per call; all
// shared state lives in the rule cache.
type Service struct {
	cache      *RuleCache
	matcher    *PatternMatcher
	normalizer *Normalizer
	broker     messaging.Broker
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewService wires the engine. broker may be nil, in which case cache
// invalidations stay local to this instance and TTL expiry is the only
// cross-instance consistency mechanism.
func NewService(cache *RuleCache, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cache:      cache,
		matcher:    NewPatternMatcher(log, m),
		normalizer: NewNormalizer(),
		broker:     broker,
		logger:     log,
		metrics:    m,
	}
}

// ValidateField validates one raw value for a tenant, country and field
// kind. Failures are returned as data; the only error paths inside resolve
// into a fail-closed "not configured" result.
func (s *Service) ValidateField(ctx context.Context, tenantID, countryID int64, fieldKind model.FieldKind, rawValue string) *model.ValidationResult {
	start := time.Now()
	defer func() {
		s.metrics.ValidationLatency.WithLabelValues(string(fieldKind)).Observe(time.Since(start).Seconds())
	}()

	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return s.finish(fieldKind, &model.ValidationResult{
			IsValid:      false,
			Code:         model.ResultRequired,
			ErrorMessage: msgRequired,
		})
	}

	rules, err := s.cache.Resolve(ctx, tenantID, countryID, fieldKind)
	if err != nil {
		// Store outage degrades to "not configured" for this call rather
		// than surfacing an error or, worse, assuming the value is fine.
		s.logger.Error(err, "rule resolution failed, failing closed",
			"tenant_id", tenantID, "country_id", countryID, "field_kind", string(fieldKind))
		rules = nil
	}

	if len(rules) == 0 {
		return s.finish(fieldKind, s.noRulesResult(fieldKind, trimmed, countryID))
	}

	var checksumRejection *model.ValidationResult

	for _, rule := range rules {
		switch rule.Kind {
		case model.RuleKindTaxIDChecksumABN:
			if !WithinLengthBounds(rule, trimmed) {
				continue
			}
			formatted, code, msg := validateABN(trimmed)
			if code == model.ResultOK {
				return s.finish(fieldKind, &model.ValidationResult{
					IsValid:        true,
					Code:           model.ResultOK,
					CanonicalValue: formatted,
					MatchedRuleKey: rule.Key,
				})
			}
			if checksumRejection == nil {
				checksumRejection = &model.ValidationResult{IsValid: false, Code: code, ErrorMessage: msg}
			}

		case model.RuleKindTaxIDChecksumACN:
			if !WithinLengthBounds(rule, trimmed) {
				continue
			}
			formatted, code, msg := validateACN(trimmed)
			if code == model.ResultOK {
				return s.finish(fieldKind, &model.ValidationResult{
					IsValid:        true,
					Code:           model.ResultOK,
					CanonicalValue: formatted,
					MatchedRuleKey: rule.Key,
				})
			}
			if checksumRejection == nil {
				checksumRejection = &model.ValidationResult{IsValid: false, Code: code, ErrorMessage: msg}
			}

		case model.RuleKindPhone:
			cleaned := CleanPhone(trimmed)
			if !s.matcher.Match(rule, cleaned) {
				continue
			}
			return s.finish(fieldKind, s.phoneResult(ctx, rule, cleaned, countryID))

		default:
			if !s.matcher.Match(rule, trimmed) {
				continue
			}
			return s.finish(fieldKind, &model.ValidationResult{
				IsValid:        true,
				Code:           model.ResultOK,
				CanonicalValue: trimmed,
				MatchedRuleKey: rule.Key,
			})
		}
	}

	if checksumRejection != nil {
		s.metrics.ChecksumFailures.Inc()
		return s.finish(fieldKind, checksumRejection)
	}

	// No rule accepted: surface the first rule's hint, its sort order makes
	// it the value the user most likely intended.
	return s.finish(fieldKind, &model.ValidationResult{
		IsValid:      false,
		Code:         model.ResultPatternRejected,
		ErrorMessage: rejectionMessage(rules[0]),
	})
}

// ValidateMultiple validates independent fields concurrently. There are no
// cross-field rules, so evaluation order is irrelevant.
func (s *Service) ValidateMultiple(ctx context.Context, tenantID, countryID int64, fields map[model.FieldKind]string) map[model.FieldKind]*model.ValidationResult {
	results := make(map[model.FieldKind]*model.ValidationResult, len(fields))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for kind, value := range fields {
		wg.Add(1)
		go func(kind model.FieldKind, value string) {
			defer wg.Done()
			result := s.ValidateField(ctx, tenantID, countryID, kind, value)
			mu.Lock()
			results[kind] = result
			mu.Unlock()
		}(kind, value)
	}
	wg.Wait()

	return results
}

// InvalidationEvent is broadcast to peer instances when rules or overrides
// change. Nil fields widen the invalidation scope.
type InvalidationEvent struct {
	TenantID  *int64           `json:"tenant_id,omitempty"`
	CountryID *int64           `json:"country_id,omitempty"`
	FieldKind *model.FieldKind `json:"field_kind,omitempty"`
}

// InvalidateCache clears matching cache entries locally and, when a broker
// is configured, broadcasts the event so peers do the same. Called after an
// admin edits a rule or override. A broadcast failure is returned so the
// caller knows peers will serve stale rules until their TTL expires; the
// local invalidation has already been applied at that point.
func (s *Service) InvalidateCache(ctx context.Context, event InvalidationEvent) error {
	s.cache.Invalidate(event.TenantID, event.CountryID, event.FieldKind)

	if s.broker == nil {
		return nil
	}
	if err := s.broker.Publish(ctx, InvalidationChannel, event); err != nil {
		s.logger.Error(err, "failed to broadcast cache invalidation")
		return err
	}
	return nil
}

// ListenForInvalidations applies invalidation events published by peer
// instances until ctx is cancelled. Receiving our own events is harmless:
// invalidation is idempotent.
func (s *Service) ListenForInvalidations(ctx context.Context) error {
	if s.broker == nil {
		return nil
	}

	msgs, err := s.broker.Subscribe(ctx, InvalidationChannel)
	if err != nil {
		return err
	}

	go func() {
		for payload := range msgs {
			var event InvalidationEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				s.logger.Warn("dropping malformed invalidation event", "error", err.Error())
				continue
			}
			s.cache.Invalidate(event.TenantID, event.CountryID, event.FieldKind)
		}
	}()

	return nil
}

func (s *Service) finish(fieldKind model.FieldKind, result *model.ValidationResult) *model.ValidationResult {
	s.metrics.ValidationsTotal.WithLabelValues(string(fieldKind), string(result.Code)).Inc()
	return result
}

// noRulesResult handles the zero-configured-rules case. Email is the one
// kind that falls back to a fixed pattern instead of failing closed.
func (s *Service) noRulesResult(fieldKind model.FieldKind, trimmed string, countryID int64) *model.ValidationResult {
	if fieldKind == model.FieldKindEmail {
		s.logger.Warn("no email rules configured, using fallback pattern", "country_id", countryID)
		if emailFallbackPattern.MatchString(trimmed) {
			return &model.ValidationResult{
				IsValid:        true,
				Code:           model.ResultOK,
				CanonicalValue: trimmed,
			}
		}
		return &model.ValidationResult{
			IsValid:      false,
			Code:         model.ResultPatternRejected,
			ErrorMessage: "Please enter a valid email address",
		}
	}

	s.metrics.NotConfiguredTotal.WithLabelValues(string(fieldKind)).Inc()
	s.logger.Warn("no validation rules configured for field kind",
		"country_id", countryID, "field_kind", string(fieldKind))
	return &model.ValidationResult{
		IsValid:      false,
		Code:         model.ResultNotConfigured,
		ErrorMessage: msgNotConfigured,
	}
}

// phoneResult canonicalizes an accepted phone value and derives its display
// form. A missing dial plan is a config gap: the cleaned value is stored
// as-is rather than rejecting input a configured rule just accepted.
func (s *Service) phoneResult(ctx context.Context, rule *model.ValidationRule, cleaned string, countryID int64) *model.ValidationResult {
	country, err := s.cache.Country(ctx, countryID)
	if err != nil {
		s.logger.Warn("no dial plan for country, storing phone unnormalized",
			"country_id", countryID, "error", err.Error())
		return &model.ValidationResult{
			IsValid:        true,
			Code:           model.ResultOK,
			CanonicalValue: cleaned,
			DisplayValue:   cleaned,
			MatchedRuleKey: rule.Key,
		}
	}

	canonical := s.normalizer.ToCanonical(cleaned, country)
	return &model.ValidationResult{
		IsValid:        true,
		Code:           model.ResultOK,
		CanonicalValue: canonical,
		DisplayValue:   s.normalizer.ToDisplay(canonical, rule, country),
		MatchedRuleKey: rule.Key,
	}
}

func rejectionMessage(rule *model.ValidationRule) string {
	if rule.Example != "" {
		return rule.Message + " (e.g. " + rule.Example + ")"
	}
	return rule.Message
}
