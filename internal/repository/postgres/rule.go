package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/validation-api/internal/model"
	"github.com/jwalitptl/validation-api/internal/repository"
	apperrors "github.com/jwalitptl/validation-api/pkg/errors"
)

type ruleRepository struct {
	BaseRepository
}

func NewRuleRepository(base BaseRepository) repository.RuleRepository {
	return &ruleRepository{base}
}

func (r *ruleRepository) GetCountryRules(ctx context.Context, countryID int64, fieldKind model.FieldKind) ([]*model.ValidationRule, error) {
	query := `
		SELECT id, rule_key, country_id, field_kind, pattern, message,
		       min_length, max_length, example, sort_order, is_active,
		       display_format, display_example, strip_prefix, spacing_pattern,
		       created_at, updated_at
		FROM validation_rules
		WHERE country_id = $1 AND field_kind = $2 AND is_active = true
		ORDER BY sort_order, rule_key
	`

	var rules []*model.ValidationRule
	if err := r.GetDB().SelectContext(ctx, &rules, query, countryID, fieldKind); err != nil {
		return nil, fmt.Errorf("%w: failed to get country rules: %v", apperrors.ErrRepositoryUnavailable, err)
	}

	// Evaluation strategy is decided once per row here, never per request.
	for _, rule := range rules {
		rule.Classify()
	}

	return rules, nil
}

func (r *ruleRepository) GetTenantOverrides(ctx context.Context, tenantID int64) (map[string]*model.RuleOverride, error) {
	query := `
		SELECT id, tenant_id, rule_key, is_enabled, sort_order_override,
		       created_at, updated_at
		FROM company_validation_rules
		WHERE tenant_id = $1
	`

	var rows []*model.RuleOverride
	if err := r.GetDB().SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant overrides: %v", apperrors.ErrRepositoryUnavailable, err)
	}

	overrides := make(map[string]*model.RuleOverride, len(rows))
	for _, row := range rows {
		overrides[row.RuleKey] = row
	}

	return overrides, nil
}

func (r *ruleRepository) GetCountry(ctx context.Context, countryID int64) (*model.Country, error) {
	query := `
		SELECT id, code, name, phone_prefix, trunk_prefix, created_at, updated_at
		FROM countries
		WHERE id = $1
	`

	var country model.Country
	if err := r.GetDB().GetContext(ctx, &country, query, countryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("country %d: %w", countryID, apperrors.ErrCountryNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get country: %v", apperrors.ErrRepositoryUnavailable, err)
	}

	return &country, nil
}
