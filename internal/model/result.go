package model

// ResultCode categorizes why a validation failed. Failures are data, not
// errors: the engine never surfaces them as Go errors to its callers.
type ResultCode string

const (
	ResultOK               ResultCode = "ok"
	ResultRequired         ResultCode = "required"
	ResultNotConfigured    ResultCode = "not_configured"
	ResultPatternRejected  ResultCode = "pattern_rejected"
	ResultChecksumRejected ResultCode = "checksum_rejected"
)

// ValidationResult is the outcome of validating a single field value.
type ValidationResult struct {
	IsValid        bool       `json:"is_valid"`
	Code           ResultCode `json:"code"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CanonicalValue string     `json:"canonical_value,omitempty"`
	DisplayValue   string     `json:"display_value,omitempty"`
	MatchedRuleKey string     `json:"matched_rule_key,omitempty"`
}
