// Package codes generates the short human-shareable codes used as
// out-of-band capabilities: class codes redeemed by students to enroll
// and parent codes redeemed by parents to link to a student.
package codes

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// PrefixClass and PrefixParent namespace the two code families.
	PrefixClass  = "CLASS-"
	PrefixParent = "PARENT-"

	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength = 6

	// DefaultMaxAttempts bounds collision retries before the
	// timestamp fallback takes over.
	DefaultMaxAttempts = 10
)

// ExistsFunc reports whether a candidate code is already persisted.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator draws candidate codes and checks them against a persisted set.
// It holds no state beyond configuration and never reserves codes; the
// caller must persist the returned code atomically with its owning record
// and treat an insert-time unique violation as a collision to retry.
type Generator struct {
	maxAttempts int
}

// NewGenerator builds a generator. attempts <= 0 selects the default bound.
func NewGenerator(attempts int) *Generator {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	return &Generator{maxAttempts: attempts}
}

// Generate returns a code of the form <prefix>XXXXXX with six symbols
// drawn uniformly from A-Z0-9. Each candidate is checked through exists;
// colliding candidates are redrawn up to the attempt bound. When every
// attempt collides the timestamp fallback is returned without a final
// uniqueness check — a deliberate availability-over-uniqueness tradeoff.
// Only exists errors are surfaced; exhaustion never is.
func (g *Generator) Generate(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := Random(prefix)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return Fallback(prefix), nil
}

// Random draws one candidate code without checking it for uniqueness.
// Bytes >= 252 are rejected so the 36 symbols stay equally likely.
func Random(prefix string) (string, error) {
	const limit = 252 // largest multiple of len(alphabet) below 256
	var b strings.Builder
	b.WriteString(prefix)
	buf := make([]byte, codeLength*2)
	written := 0
	for written < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("draw code symbols: %w", err)
		}
		for _, c := range buf {
			if c >= limit {
				continue
			}
			b.WriteByte(alphabet[int(c)%len(alphabet)])
			written++
			if written == codeLength {
				break
			}
		}
	}
	return b.String(), nil
}

// Fallback derives a deterministic code from the current wall clock in
// base 36. It is best effort only: uniqueness is not re-confirmed.
func Fallback(prefix string) string {
	return prefix + strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
}
