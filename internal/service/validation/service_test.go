package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/validation-api/internal/model"
	apperrors "github.com/jwalitptl/validation-api/pkg/errors"
)

const (
	tenantID  = int64(42)
	countryAU = int64(1)
)

func TestValidateField_EmptyInputIsRequired(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Minute)

	for _, input := range []string{"", "   ", "\t\n"} {
		result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPhone, input)
		assert.False(t, result.IsValid)
		assert.Equal(t, model.ResultRequired, result.Code)
		assert.Equal(t, msgRequired, result.ErrorMessage)
	}

	// The short-circuit happens before any rule lookup.
	assert.Equal(t, 0, repo.fetchCount())
}

func TestValidateField_NoRulesFailsClosed(t *testing.T) {
	svc := newTestService(newFakeRepo(), time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultNotConfigured, result.Code)
	assert.Equal(t, msgNotConfigured, result.ErrorMessage)
}

func TestValidateField_EmailFallback(t *testing.T) {
	svc := newTestService(newFakeRepo(), time.Minute)
	ctx := context.Background()

	// Email is the one kind that does not fail closed without rules.
	result := svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindEmail, "user@example.com")
	assert.True(t, result.IsValid)
	assert.Equal(t, "user@example.com", result.CanonicalValue)
	assert.Empty(t, result.MatchedRuleKey)

	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindEmail, "not-an-email")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultPatternRejected, result.Code)
}

func TestValidateField_ConfiguredEmailRuleWins(t *testing.T) {
	repo := newFakeRepo()
	rule := newRule("EMAIL_CORPORATE_DOMAIN", countryAU, model.FieldKindEmail, `[a-z.]+@example\.com`, 10)
	repo.setRules(countryAU, model.FieldKindEmail, rule)
	svc := newTestService(repo, time.Minute)
	ctx := context.Background()

	result := svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindEmail, "user@example.com")
	assert.True(t, result.IsValid)
	assert.Equal(t, "EMAIL_CORPORATE_DOMAIN", result.MatchedRuleKey)

	// With a rule configured, the fallback never runs.
	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindEmail, "user@other.com")
	assert.False(t, result.IsValid)
}

func TestValidateField_Precedence(t *testing.T) {
	repo := newFakeRepo()
	// Both rules match the same input; the lower sort order wins.
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10),
		newRule("POSTAL_LOOSE", countryAU, model.FieldKindPostalCode, `\d{3,6}`, 20),
	)
	svc := newTestService(repo, time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "2000")
	require.True(t, result.IsValid)
	assert.Equal(t, "POSTAL_STRICT", result.MatchedRuleKey)
}

func TestValidateField_RejectionCarriesFirstRuleHint(t *testing.T) {
	repo := newFakeRepo()
	first := newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10)
	first.Message = "Postcode must be 4 digits"
	first.Example = "2000"
	repo.setRules(countryAU, model.FieldKindPostalCode,
		first,
		newRule("POSTAL_LOOSE", countryAU, model.FieldKindPostalCode, `\d{3,6}`, 20),
	)
	svc := newTestService(repo, time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "no digits")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultPatternRejected, result.Code)
	assert.Equal(t, "Postcode must be 4 digits (e.g. 2000)", result.ErrorMessage)
}

func TestValidateField_DisabledOverrideRejects(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10),
	)
	repo.setOverride(tenantID, &model.RuleOverride{TenantID: tenantID, RuleKey: "POSTAL_STRICT", IsEnabled: false})
	svc := newTestService(repo, time.Minute)

	// The only rule that would accept this value is disabled for the
	// tenant, so the field behaves as if nothing is configured.
	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultNotConfigured, result.Code)
}

func TestValidateField_ABN(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindTaxID,
		newRule("TAX_ID_ABN", countryAU, model.FieldKindTaxID, `\d{11}`, 10),
	)
	svc := newTestService(repo, time.Minute)
	ctx := context.Background()

	result := svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindTaxID, "53004085616")
	require.True(t, result.IsValid)
	assert.Equal(t, "53 004 085 616", result.CanonicalValue)
	assert.Equal(t, "TAX_ID_ABN", result.MatchedRuleKey)

	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindTaxID, "12345678901")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultChecksumRejected, result.Code)
	assert.Equal(t, msgABNChecksum, result.ErrorMessage)
}

func TestValidateField_ChecksumRuleLengthBounds(t *testing.T) {
	repo := newFakeRepo()
	rule := newRule("TAX_ID_ABN", countryAU, model.FieldKindTaxID, `\d{11}`, 10)
	rule.MaxLength = intPtr(11)
	repo.setRules(countryAU, model.FieldKindTaxID, rule)
	svc := newTestService(repo, time.Minute)
	ctx := context.Background()

	result := svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindTaxID, "53004085616")
	require.True(t, result.IsValid)

	// The length bound applies to the raw value, separators included, so
	// the checksum never runs and the rejection is the pattern one.
	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindTaxID, "53 004 085 616")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultPatternRejected, result.Code)
	assert.Equal(t, rule.Message, result.ErrorMessage)
}

func TestValidateField_Phone(t *testing.T) {
	repo := newFakeRepo()
	rule := newRule("PHONE_MOBILE_FORMAT", countryAU, model.FieldKindPhone, `04\d{8}`, 10)
	rule.StripPrefix = true
	rule.SpacingPattern = "#### ### ###"
	repo.setRules(countryAU, model.FieldKindPhone, rule)
	repo.setCountry(auCountry)
	svc := newTestService(repo, time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPhone, "0412 345 678")
	require.True(t, result.IsValid)
	assert.Equal(t, "+61412345678", result.CanonicalValue)
	assert.Equal(t, "0412 345 678", result.DisplayValue)
	assert.Equal(t, "PHONE_MOBILE_FORMAT", result.MatchedRuleKey)
}

func TestValidateField_PhoneWithoutDialPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPhone,
		newRule("PHONE_MOBILE_FORMAT", countryAU, model.FieldKindPhone, `04\d{8}`, 10),
	)
	// No country row: the accepted value is stored unnormalized.
	svc := newTestService(repo, time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPhone, "0412345678")
	require.True(t, result.IsValid)
	assert.Equal(t, "0412345678", result.CanonicalValue)
}

func TestValidateField_MalformedRuleIsSkipped(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_BROKEN", countryAU, model.FieldKindPostalCode, `([0-9`, 10),
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 20),
	)
	svc := newTestService(repo, time.Minute)

	// The malformed rule never matches but does not abort evaluation.
	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "2000")
	require.True(t, result.IsValid)
	assert.Equal(t, "POSTAL_STRICT", result.MatchedRuleKey)
}

func TestValidateField_RepositoryOutageFailsClosed(t *testing.T) {
	repo := newFakeRepo()
	repo.setErr(apperrors.ErrRepositoryUnavailable)
	svc := newTestService(repo, time.Minute)

	result := svc.ValidateField(context.Background(), tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultNotConfigured, result.Code)
}

func TestValidateField_StaleAfterEditUntilInvalidated(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10),
	)
	svc := newTestService(repo, time.Minute)
	ctx := context.Background()

	result := svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindPostalCode, "2000")
	require.True(t, result.IsValid)

	// Repository-side edit: within TTL the old rule set still applies.
	repo.setRules(countryAU, model.FieldKindPostalCode)
	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.True(t, result.IsValid)

	// Explicit invalidation takes effect immediately.
	svc.InvalidateCache(ctx, InvalidationEvent{CountryID: int64Ptr(countryAU), FieldKind: kindPtr(model.FieldKindPostalCode)})
	result = svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ResultNotConfigured, result.Code)
}

func TestInvalidateCache_BroadcastFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10),
	)
	svc := NewService(newTestCache(repo, time.Minute), &failingBroker{err: errors.New("broker down")}, testLogger, testMetrics)
	ctx := context.Background()

	svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindPostalCode, "2000")
	warmFetches := repo.fetchCount()

	err := svc.InvalidateCache(ctx, InvalidationEvent{CountryID: int64Ptr(countryAU), FieldKind: kindPtr(model.FieldKindPostalCode)})
	require.Error(t, err)

	// The local invalidation applied before the broadcast failed, so the
	// next call goes back to the store.
	svc.ValidateField(ctx, tenantID, countryAU, model.FieldKindPostalCode, "2000")
	assert.Greater(t, repo.fetchCount(), warmFetches)
}

func TestValidateMultiple(t *testing.T) {
	repo := newFakeRepo()
	repo.setRules(countryAU, model.FieldKindPostalCode,
		newRule("POSTAL_STRICT", countryAU, model.FieldKindPostalCode, `\d{4}`, 10),
	)
	repo.setRules(countryAU, model.FieldKindTaxID,
		newRule("TAX_ID_ABN", countryAU, model.FieldKindTaxID, `\d{11}`, 10),
	)
	svc := newTestService(repo, time.Minute)

	results := svc.ValidateMultiple(context.Background(), tenantID, countryAU, map[model.FieldKind]string{
		model.FieldKindPostalCode: "2000",
		model.FieldKindTaxID:      "51824753556",
		model.FieldKindAddress:    "1 Example St",
	})

	require.Len(t, results, 3)
	assert.True(t, results[model.FieldKindPostalCode].IsValid)
	assert.True(t, results[model.FieldKindTaxID].IsValid)
	assert.Equal(t, "51 824 753 556", results[model.FieldKindTaxID].CanonicalValue)
	// No rules configured for address: fails closed, independently of the
	// other fields.
	assert.False(t, results[model.FieldKindAddress].IsValid)
	assert.Equal(t, model.ResultNotConfigured, results[model.FieldKindAddress].Code)
}
