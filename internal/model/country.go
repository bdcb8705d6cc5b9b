package model

import "time"

// Country carries the dial-plan data the phone normalizer consults.
// PhonePrefix is the international prefix ("+61"); TrunkPrefix is the
// leading digit(s) of the local convention ("0" for AU/NZ/UK, empty for
// NANP countries). Adding a country is a data change, not a code change.
type Country struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"` // ISO 3166-1 alpha-2, e.g. AU
	Name        string    `json:"name" db:"name"`
	PhonePrefix string    `json:"phone_prefix" db:"phone_prefix"`
	TrunkPrefix string    `json:"trunk_prefix" db:"trunk_prefix"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
