// Package domain holds the QR code allocation rules: code format, batch
// generation and the derived code status.
package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"predpraznik_backend/platform/apperr"
)

const (
	// Alphabet excludes the look-alikes 0/O, 1/I and L.
	Alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	// SuffixLength is the number of random characters after the dash.
	SuffixLength = 4
	// AttemptsPerCode bounds the uniqueness search at count*AttemptsPerCode draws.
	AttemptsPerCode = 100
	// MaxBatch is the largest batch a single call may request.
	MaxBatch = 500
)

var (
	prefixPattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	codePattern   = regexp.MustCompile(`^[A-Z0-9]+-[` + Alphabet + `]{4}$`)
)

// Source draws uniformly from [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource is safe for concurrent use.
var DefaultSource Source = globalSource{}

// Shortfall is attached as details to the error returned when the attempt
// budget ran out before count unique codes were found.
type Shortfall struct {
	Requested int `json:"requested"`
	Generated int `json:"generated"`
}

// NormalizePrefix upper-cases and validates a salesperson prefix.
func NormalizePrefix(prefix string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if !prefixPattern.MatchString(p) {
		return "", apperr.Validation("prefix must be letters and digits only")
	}
	return p, nil
}

// ValidCode reports whether code has the PREFIX-XXXX shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NormalizeCode upper-cases a scanned or typed code and validates it.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !ValidCode(c) {
		return "", apperr.Validation("invalid code format")
	}
	return c, nil
}

// PrefixOf returns the part before the dash.
func PrefixOf(code string) string {
	prefix, _, _ := strings.Cut(code, "-")
	return prefix
}

// Generate returns exactly count new codes for prefix, none of which appear in
// existing or repeat within the batch. If the attempt budget runs out first it
// returns no codes and a Shortfall error; a partial batch is never handed out.
func Generate(prefix string, count int, existing map[string]struct{}, rnd Source) ([]string, error) {
	p, err := NormalizePrefix(prefix)
	if err != nil {
		return nil, err
	}
	if count < 1 || count > MaxBatch {
		return nil, apperr.Validation(fmt.Sprintf("count must be between 1 and %d", MaxBatch))
	}
	if rnd == nil {
		rnd = DefaultSource
	}

	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	budget := count * AttemptsPerCode

	var b strings.Builder
	for attempt := 0; attempt < budget && len(codes) < count; attempt++ {
		b.Reset()
		b.WriteString(p)
		b.WriteByte('-')
		for i := 0; i < SuffixLength; i++ {
			b.WriteByte(Alphabet[rnd.IntN(len(Alphabet))])
		}
		code := b.String()

		if _, taken := existing[code]; taken {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	if len(codes) < count {
		return nil, apperr.Shortfall(fmt.Sprintf("generated only %d of %d unique codes for prefix %s", len(codes), count, p)).
			WithDetails(Shortfall{Requested: count, Generated: len(codes)})
	}
	return codes, nil
}
