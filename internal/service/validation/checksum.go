package validation

import (
	"strings"

	"github.com/jwalitptl/validation-api/internal/model"
)

// ABN weighting per the ATO algorithm: subtract 1 from the first digit,
// multiply each digit by its weight, valid iff the sum is divisible by 89.
var abnWeights = [11]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

const (
	msgABNLength   = "ABN must be exactly 11 digits"
	msgABNChecksum = "ABN is not valid, the checksum does not match"
	msgACNLength   = "ACN must be exactly 9 digits"
)

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateABN checks an Australian Business Number. On success it returns
// the canonical "XX XXX XXX XXX" grouping and ResultOK; otherwise a
// checksum-specific code and message.
func validateABN(raw string) (string, model.ResultCode, string) {
	digits := stripNonDigits(raw)
	if len(digits) != 11 {
		return "", model.ResultChecksumRejected, msgABNLength
	}

	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i == 0 {
			d--
		}
		sum += d * abnWeights[i]
	}
	if sum%89 != 0 {
		return "", model.ResultChecksumRejected, msgABNChecksum
	}

	formatted := digits[0:2] + " " + digits[2:5] + " " + digits[5:8] + " " + digits[8:11]
	return formatted, model.ResultOK, ""
}

// validateACN checks an Australian Company Number. Format only, no
// checksum: exactly 9 digits, canonicalized as "XXX XXX XXX".
func validateACN(raw string) (string, model.ResultCode, string) {
	digits := stripNonDigits(raw)
	if len(digits) != 9 {
		return "", model.ResultChecksumRejected, msgACNLength
	}

	formatted := digits[0:3] + " " + digits[3:6] + " " + digits[6:9]
	return formatted, model.ResultOK, ""
}
