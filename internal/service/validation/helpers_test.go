package validation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jwalitptl/validation-api/internal/model"
	"github.com/jwalitptl/validation-api/pkg/logger"
	"github.com/jwalitptl/validation-api/pkg/metrics"
)

// Prometheus collectors register globally, so the whole package shares one
// metrics instance.
var testMetrics = metrics.NewMetrics("test", "validation")

var testLogger = logger.NewLogger(&logger.Config{
	Level:      logger.FatalLevel,
	TimeFormat: time.RFC3339,
	Output:     io.Discard,
})

// fakeRuleRepo is an in-memory rule store. Tests mutate it directly to
// simulate out-of-band admin edits and outages.
type fakeRuleRepo struct {
	mu        sync.Mutex
	rules     map[string][]*model.ValidationRule
	overrides map[int64]map[string]*model.RuleOverride
	countries map[int64]*model.Country
	err       error
	delay     time.Duration
	fetches   int
}

func newFakeRepo() *fakeRuleRepo {
	return &fakeRuleRepo{
		rules:     make(map[string][]*model.ValidationRule),
		overrides: make(map[int64]map[string]*model.RuleOverride),
		countries: make(map[int64]*model.Country),
	}
}

func (f *fakeRuleRepo) setRules(countryID int64, kind model.FieldKind, rules ...*model.ValidationRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[fmt.Sprintf("%d:%s", countryID, kind)] = rules
}

func (f *fakeRuleRepo) setOverride(tenantID int64, ov *model.RuleOverride) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overrides[tenantID] == nil {
		f.overrides[tenantID] = make(map[string]*model.RuleOverride)
	}
	f.overrides[tenantID][ov.RuleKey] = ov
}

func (f *fakeRuleRepo) setCountry(c *model.Country) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries[c.ID] = c
}

func (f *fakeRuleRepo) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRuleRepo) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeRuleRepo) begin() error {
	f.mu.Lock()
	f.fetches++
	err := f.err
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (f *fakeRuleRepo) GetCountryRules(_ context.Context, countryID int64, kind model.FieldKind) ([]*model.ValidationRule, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rules[fmt.Sprintf("%d:%s", countryID, kind)], nil
}

func (f *fakeRuleRepo) GetTenantOverrides(_ context.Context, tenantID int64) (map[string]*model.RuleOverride, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]*model.RuleOverride, len(f.overrides[tenantID]))
	for k, v := range f.overrides[tenantID] {
		result[k] = v
	}
	return result, nil
}

func (f *fakeRuleRepo) GetCountry(_ context.Context, countryID int64) (*model.Country, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.countries[countryID]
	if !ok {
		return nil, fmt.Errorf("country %d not found", countryID)
	}
	return c, nil
}

func newRule(key string, countryID int64, kind model.FieldKind, pattern string, sortOrder int) *model.ValidationRule {
	r := &model.ValidationRule{
		Key:       key,
		CountryID: countryID,
		FieldKind: kind,
		Pattern:   pattern,
		Message:   "Invalid " + string(kind),
		SortOrder: sortOrder,
		IsActive:  true,
	}
	r.Classify()
	return r
}

func intPtr(i int) *int { return &i }

func int64Ptr(i int64) *int64 { return &i }

func kindPtr(k model.FieldKind) *model.FieldKind { return &k }

func newTestCache(repo *fakeRuleRepo, ttl time.Duration) *RuleCache {
	return NewRuleCache(repo, ttl, time.Second, testLogger, testMetrics)
}

func newTestService(repo *fakeRuleRepo, ttl time.Duration) *Service {
	return NewService(newTestCache(repo, ttl), nil, testLogger, testMetrics)
}

// failingBroker simulates a pub/sub outage.
type failingBroker struct {
	err error
}

func (b *failingBroker) Publish(context.Context, string, interface{}) error { return b.err }

func (b *failingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, b.err
}

func (b *failingBroker) Close() error { return nil }

var auCountry = &model.Country{ID: 1, Code: "AU", Name: "Australia", PhonePrefix: "+61", TrunkPrefix: "0"}
