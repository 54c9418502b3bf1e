package app

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
)

const (
	verificationCodeMin   = 100000
	verificationCodeRange = 900000
)

// newVerificationCode returns a 6 digit code in [100000, 999999].
// Codes are not checked for uniqueness against outstanding reservations.
func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeRange))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(verificationCodeMin+n.Int64(), 10), nil
}

func verificationCodeMatches(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
