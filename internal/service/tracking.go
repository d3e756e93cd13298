package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const trackingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTrackingToken builds `<PREFIX>-<base36 millis>-<4 random chars>` where PREFIX is the first
// three letters of the customer name, upper-cased and padded with X.
func NewTrackingToken(customerName string, now time.Time) string {
	prefix := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(customerName) {
		if len(prefix) == 3 {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			prefix = append(prefix, r)
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}

	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms
			n = big.NewInt(now.UnixNano() % int64(len(trackingAlphabet)))
		}
		suffix[i] = trackingAlphabet[n.Int64()]
	}

	return string(prefix) + "-" + stamp + "-" + string(suffix)
}
