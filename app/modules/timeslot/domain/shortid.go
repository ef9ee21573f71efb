package timeslotdomain

import (
	"strings"
)

const (
	shortIDPrefix  = "t"
	base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// ShortID is the public id of a timeslot: "t" followed by the base62 slot id.
func ShortID(slotID int64) string {
	if slotID <= 0 {
		return ""
	}
	var buf [12]byte
	i := len(buf)
	for n := slotID; n > 0; n /= 62 {
		i--
		buf[i] = base62Alphabet[n%62]
	}
	return shortIDPrefix + string(buf[i:])
}

// ParseShortID reverses ShortID.
func ParseShortID(s string) (int64, bool) {
	digits, ok := strings.CutPrefix(s, shortIDPrefix)
	if !ok || digits == "" || len(digits) > 10 {
		return 0, false
	}
	var n int64
	for _, c := range digits {
		v := strings.IndexRune(base62Alphabet, c)
		if v < 0 {
			return 0, false
		}
		n = n*62 + int64(v)
	}
	return n, n > 0
}
