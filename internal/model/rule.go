package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldKind is the semantic category of an input field.
type FieldKind string

const (
	FieldKindPhone      FieldKind = "phone"
	FieldKindPostalCode FieldKind = "postal_code"
	FieldKindTaxID      FieldKind = "tax_id"
	FieldKindEmail      FieldKind = "email"
	FieldKindAddress    FieldKind = "address"
)

// RuleKind selects the evaluation strategy for a rule. It is assigned once
// when the rule is loaded so the engine dispatches over a closed set instead
// of sniffing key substrings at validation time.
type RuleKind int

const (
	RuleKindGenericPattern RuleKind = iota
	RuleKindTaxIDChecksumABN
	RuleKindTaxIDChecksumACN
	RuleKindPhone
)

func (k RuleKind) String() string {
	switch k {
	case RuleKindTaxIDChecksumABN:
		return "tax_id_checksum_abn"
	case RuleKindTaxIDChecksumACN:
		return "tax_id_checksum_acn"
	case RuleKindPhone:
		return "phone"
	default:
		return "generic_pattern"
	}
}

// ValidationRule is one matchable pattern for a (country, field kind) pair.
type ValidationRule struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Key            string    `json:"key" db:"rule_key"`
	CountryID      int64     `json:"country_id" db:"country_id"`
	FieldKind      FieldKind `json:"field_kind" db:"field_kind"`
	Pattern        string    `json:"pattern" db:"pattern"`
	Message        string    `json:"message" db:"message"`
	MinLength      *int      `json:"min_length,omitempty" db:"min_length"`
	MaxLength      *int      `json:"max_length,omitempty" db:"max_length"`
	Example        string    `json:"example" db:"example"`
	SortOrder      int       `json:"sort_order" db:"sort_order"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	DisplayFormat  string    `json:"display_format" db:"display_format"`
	DisplayExample string    `json:"display_example" db:"display_example"`
	StripPrefix    bool      `json:"strip_prefix" db:"strip_prefix"`
	SpacingPattern string    `json:"spacing_pattern" db:"spacing_pattern"`
	Kind           RuleKind  `json:"-" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Classify assigns the rule's evaluation kind from its field kind and key.
// Called by the repository when rows are loaded, never on the hot path.
func (r *ValidationRule) Classify() {
	key := strings.ToUpper(r.Key)
	switch {
	case r.FieldKind == FieldKindTaxID && strings.Contains(key, "ABN"):
		r.Kind = RuleKindTaxIDChecksumABN
	case r.FieldKind == FieldKindTaxID && strings.Contains(key, "ACN"):
		r.Kind = RuleKindTaxIDChecksumACN
	case r.FieldKind == FieldKindPhone:
		r.Kind = RuleKindPhone
	default:
		r.Kind = RuleKindGenericPattern
	}
}

// RuleOverride links a tenant to a rule it has explicitly enabled or
// disabled. The presence of any override rows switches the tenant from
// "inherit all active country rules" to an explicit allow-list.
type RuleOverride struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TenantID          int64     `json:"tenant_id" db:"tenant_id"`
	RuleKey           string    `json:"rule_key" db:"rule_key"`
	IsEnabled         bool      `json:"is_enabled" db:"is_enabled"`
	SortOrderOverride *int      `json:"sort_order_override,omitempty" db:"sort_order_override"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
