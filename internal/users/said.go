package users

import (
	"errors"
	"strings"

	"resume-analyzer/internal/shared/util"
)

var (
	errSAIDLength = errors.New("ID number must be exactly 13 digits")
	errSAIDDate   = errors.New("ID number contains an invalid date of birth")
	errSAIDCheck  = errors.New("ID number checksum is invalid")
)

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ValidateSAID checks a South African ID number: 13 digits, a YYMMDD birth
// date and a Luhn check digit.
func ValidateSAID(id string) error {
	id = strings.TrimSpace(id)
	if len(id) != 13 {
		return errSAIDLength
	}
	digits := make([]int, 13)
	for i, r := range id {
		if r < '0' || r > '9' {
			return errSAIDLength
		}
		digits[i] = int(r - '0')
	}

	month := digits[2]*10 + digits[3]
	day := digits[4]*10 + digits[5]
	if month < 1 || month > 12 || day < 1 || day > daysInMonth[month] {
		return errSAIDDate
	}

	total := 0
	for i := 0; i < 12; i++ {
		d := digits[11-i]
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
	}
	if (total+digits[12])%10 != 0 {
		return errSAIDCheck
	}
	return nil
}

// HashSAID returns the stored form of an ID number.
func HashSAID(id string) string {
	return util.SHA256Hex(strings.TrimSpace(id))
}
