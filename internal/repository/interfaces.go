package repository

import (
	"context"

	"github.com/jwalitptl/validation-api/internal/model"
)

type (
	// RuleRepository reads validation rules, tenant overrides and country
	// dial plans from the rule store. Implementations must wrap outages in
	// errors.ErrRepositoryUnavailable so callers can degrade to "no rules
	// known" instead of failing the request.
	RuleRepository interface {
		GetCountryRules(ctx context.Context, countryID int64, fieldKind model.FieldKind) ([]*model.ValidationRule, error)
		GetTenantOverrides(ctx context.Context, tenantID int64) (map[string]*model.RuleOverride, error)
		GetCountry(ctx context.Context, countryID int64) (*model.Country, error)
	}
)
