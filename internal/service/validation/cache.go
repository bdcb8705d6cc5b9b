package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/validation-api/internal/model"
	"github.com/jwalitptl/validation-api/internal/repository"
	"github.com/jwalitptl/validation-api/pkg/logger"
	"github.com/jwalitptl/validation-api/pkg/metrics"
)

const defaultCacheTTL = 5 * time.Minute

// RuleCache is a TTL-bounded, read-through cache over the rule store.
// Entries are keyed per (country, field kind), per tenant override set and
// per country dial plan. Concurrent misses on the same key collapse to a
// single repository fetch. A stale entry is never served: go-cache expires
// entries at TTL and an expired read falls through to the store.
type RuleCache struct {
	repo         repository.RuleRepository
	store        *gocache.Cache
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *logger.Logger
	metrics      *metrics.Metrics

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewRuleCache creates a rule cache over the given repository. TTL and
// fetch timeout fall back to 5m / 3s when non-positive.
func NewRuleCache(repo repository.RuleRepository, ttl, fetchTimeout time.Duration, log *logger.Logger, m *metrics.Metrics) *RuleCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 3 * time.Second
	}
	return &RuleCache{
		repo:         repo,
		store:        gocache.New(ttl, 2*ttl),
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       log,
		metrics:      m,
		keyLocks:     make(map[string]*sync.Mutex),
	}
}

func rulesKey(countryID int64, kind model.FieldKind) string {
	return fmt.Sprintf("rules:%d:%s", countryID, kind)
}

func overridesKey(tenantID int64) string {
	return fmt.Sprintf("overrides:%d", tenantID)
}

func countryKey(countryID int64) string {
	return fmt.Sprintf("country:%d", countryID)
}

// lockKey returns the per-key mutex, creating it on first use. Invalidation
// shares these locks with reads so a concurrent clear never interleaves with
// a half-finished fill.
func (c *RuleCache) lockKey(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.keyLocks[key] = l
	}
	return l
}

// Rules returns the active country rules for (countryID, fieldKind),
// ascending sort order, fetching through to the store on miss.
func (c *RuleCache) Rules(ctx context.Context, countryID int64, fieldKind model.FieldKind) ([]*model.ValidationRule, error) {
	key := rulesKey(countryID, fieldKind)
	l := c.lockKey(key)
	l.Lock()
	defer l.Unlock()

	if cached, ok := c.store.Get(key); ok {
		c.metrics.CacheHits.WithLabelValues("rules").Inc()
		return cached.([]*model.ValidationRule), nil
	}
	c.metrics.CacheMisses.WithLabelValues("rules").Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	rules, err := c.repo.GetCountryRules(fetchCtx, countryID, fieldKind)
	c.metrics.RepositoryLatency.WithLabelValues("country_rules").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RepositoryErrors.Inc()
		return nil, err
	}

	c.store.Set(key, rules, c.ttl)
	return rules, nil
}

// Overrides returns the tenant's override rows keyed by rule key. An empty
// map means the tenant inherits all active country rules.
func (c *RuleCache) Overrides(ctx context.Context, tenantID int64) (map[string]*model.RuleOverride, error) {
	key := overridesKey(tenantID)
	l := c.lockKey(key)
	l.Lock()
	defer l.Unlock()

	if cached, ok := c.store.Get(key); ok {
		c.metrics.CacheHits.WithLabelValues("overrides").Inc()
		return cached.(map[string]*model.RuleOverride), nil
	}
	c.metrics.CacheMisses.WithLabelValues("overrides").Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	overrides, err := c.repo.GetTenantOverrides(fetchCtx, tenantID)
	c.metrics.RepositoryLatency.WithLabelValues("tenant_overrides").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RepositoryErrors.Inc()
		return nil, err
	}

	c.store.Set(key, overrides, c.ttl)
	return overrides, nil
}

// Country returns the dial-plan row for a country.
func (c *RuleCache) Country(ctx context.Context, countryID int64) (*model.Country, error) {
	key := countryKey(countryID)
	l := c.lockKey(key)
	l.Lock()
	defer l.Unlock()

	if cached, ok := c.store.Get(key); ok {
		c.metrics.CacheHits.WithLabelValues("country").Inc()
		return cached.(*model.Country), nil
	}
	c.metrics.CacheMisses.WithLabelValues("country").Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	country, err := c.repo.GetCountry(fetchCtx, countryID)
	c.metrics.RepositoryLatency.WithLabelValues("country").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RepositoryErrors.Inc()
		return nil, err
	}

	c.store.Set(key, country, c.ttl)
	return country, nil
}

// Resolve returns the effective rule set for a tenant: all active country
// rules when the tenant has no override rows, otherwise only the rules the
// tenant has explicitly enabled, ordered by the override sort order when
// set. Ties break on rule key for determinism.
func (c *RuleCache) Resolve(ctx context.Context, tenantID, countryID int64, fieldKind model.FieldKind) ([]*model.ValidationRule, error) {
	rules, err := c.Rules(ctx, countryID, fieldKind)
	if err != nil {
		return nil, err
	}

	overrides, err := c.Overrides(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if len(overrides) == 0 {
		return rules, nil
	}

	type orderedRule struct {
		rule  *model.ValidationRule
		order int
	}

	effective := make([]orderedRule, 0, len(rules))
	for _, rule := range rules {
		ov, ok := overrides[rule.Key]
		if !ok || !ov.IsEnabled {
			continue
		}
		order := rule.SortOrder
		if ov.SortOrderOverride != nil {
			order = *ov.SortOrderOverride
		}
		effective = append(effective, orderedRule{rule: rule, order: order})
	}

	sort.SliceStable(effective, func(i, j int) bool {
		if effective[i].order != effective[j].order {
			return effective[i].order < effective[j].order
		}
		return effective[i].rule.Key < effective[j].rule.Key
	})

	result := make([]*model.ValidationRule, len(effective))
	for i, e := range effective {
		result[i] = e.rule
	}
	return result, nil
}

// Invalidate clears cache entries in the given scope. Nil arguments widen
// the scope: Invalidate(nil, nil, nil) clears everything, a country without
// a field kind clears every kind for that country plus its dial plan.
func (c *RuleCache) Invalidate(tenantID, countryID *int64, fieldKind *model.FieldKind) {
	c.metrics.CacheInvalidations.Inc()

	if tenantID == nil && countryID == nil && fieldKind == nil {
		c.store.Flush()
		return
	}

	if tenantID != nil {
		c.deleteKey(overridesKey(*tenantID))
	}

	switch {
	case countryID != nil && fieldKind != nil:
		c.deleteKey(rulesKey(*countryID, *fieldKind))
	case countryID != nil:
		prefix := fmt.Sprintf("rules:%d:", *countryID)
		for key := range c.store.Items() {
			if strings.HasPrefix(key, prefix) {
				c.deleteKey(key)
			}
		}
		c.deleteKey(countryKey(*countryID))
	case fieldKind != nil:
		suffix := ":" + string(*fieldKind)
		for key := range c.store.Items() {
			if strings.HasPrefix(key, "rules:") && strings.HasSuffix(key, suffix) {
				c.deleteKey(key)
			}
		}
	}
}

func (c *RuleCache) deleteKey(key string) {
	l := c.lockKey(key)
	l.Lock()
	c.store.Delete(key)
	l.Unlock()
}
