package orders

import (
	"math/rand/v2"
	"strconv"
)

// NewConfirmationCode draws a uniform four digit code in 1000..9999. It only
// has to survive one delivery, so math/rand is enough.
func NewConfirmationCode() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

// ValidConfirmationCode reports whether code has the four digit shape.
func ValidConfirmationCode(code string) bool {
	if len(code) != 4 || code[0] == '0' {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
