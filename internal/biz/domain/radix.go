package domain

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"time"
)

const radixDigits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Radix bounds accepted by the conversion helpers
const (
	MinRadix = 2
	MaxRadix = len(radixDigits)
)

// ErrRadixOverflow is returned for numbers that do not fit in 64 bits
var ErrRadixOverflow = errors.New("radix value overflows uint64")

func checkRadix(base int) error {
	if base < MinRadix || base > MaxRadix {
		return fmt.Errorf("radix %d out of range [%d, %d]", base, MinRadix, MaxRadix)
	}
	return nil
}

// FromRadix parses s in the given base. Digits are case-insensitive and
// the empty string is zero.
func FromRadix(base int, s string) (uint64, error) {
	if err := checkRadix(base); err != nil {
		return 0, err
	}
	var n uint64
	for _, r := range strings.ToUpper(s) {
		d := strings.IndexRune(radixDigits, r)
		if d < 0 || d >= base {
			return 0, fmt.Errorf("invalid digit %q for radix %d", r, base)
		}
		hi, lo := bits.Mul64(n, uint64(base))
		sum, carry := bits.Add64(lo, uint64(d), 0)
		if hi != 0 || carry != 0 {
			return 0, fmt.Errorf("%q in radix %d: %w", s, base, ErrRadixOverflow)
		}
		n = sum
	}
	return n, nil
}

// ToRadix formats n in the given base with upper-case digits.
// Zero formats as the empty string.
func ToRadix(base int, n uint64) (string, error) {
	if err := checkRadix(base); err != nil {
		return "", err
	}
	var buf []byte
	for n > 0 {
		buf = append(buf, radixDigits[n%uint64(base)])
		n /= uint64(base)
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

// Convert re-encodes s from one base into another
func Convert(from, to int, s string) (string, error) {
	n, err := FromRadix(from, s)
	if err != nil {
		return "", err
	}
	return ToRadix(to, n)
}

// RadixTimeStatus formats t's wall clock in base, e.g.
// "Current UTC+2 time in base 16 is 14:01".
func RadixTimeStatus(t time.Time, base int) (string, error) {
	hour, err := ToRadix(base, uint64(t.Hour()))
	if err != nil {
		return "", err
	}
	minute, err := ToRadix(base, uint64(t.Minute()))
	if err != nil {
		return "", err
	}
	_, offset := t.Zone()
	return fmt.Sprintf("Current UTC%+d time in base %d is %s:%s",
		offset/3600, base, padRadix(hour), padRadix(minute)), nil
}

func padRadix(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
