package codes

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classCodePattern = regexp.MustCompile(`^CLASS-[A-Z0-9]{6}$`)
var parentCodePattern = regexp.MustCompile(`^PARENT-[A-Z0-9]{6}$`)

func noneExist(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func TestGenerateFormat(t *testing.T) {
	gen := NewGenerator(0)

	classCode, err := gen.Generate(context.Background(), PrefixClass, noneExist)
	require.NoError(t, err)
	assert.Regexp(t, classCodePattern, classCode)

	parentCode, err := gen.Generate(context.Background(), PrefixParent, noneExist)
	require.NoError(t, err)
	assert.Regexp(t, parentCodePattern, parentCode)
}

func TestGenerateUniqueAgainstPersistedSet(t *testing.T) {
	gen := NewGenerator(0)
	seen := make(map[string]bool)
	exists := func(ctx context.Context, code string) (bool, error) {
		return seen[code], nil
	}

	for i := 0; i < 200; i++ {
		code, err := gen.Generate(context.Background(), PrefixClass, exists)
		require.NoError(t, err)
		require.False(t, seen[code], "generated duplicate %s", code)
		seen[code] = true
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	gen := NewGenerator(0)
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	code, err := gen.Generate(context.Background(), PrefixParent, exists)
	require.NoError(t, err)
	assert.Regexp(t, parentCodePattern, code)
	assert.Equal(t, 4, calls)
}

func TestGenerateFallsBackAfterExhaustion(t *testing.T) {
	gen := NewGenerator(10)
	calls := 0
	allTaken := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}

	code, err := gen.Generate(context.Background(), PrefixClass, allTaken)
	require.NoError(t, err)
	// The fallback is timestamp derived and intentionally not re-checked.
	assert.Equal(t, 10, calls)
	assert.Regexp(t, `^CLASS-[A-Z0-9]+$`, code)
	assert.NotRegexp(t, classCodePattern, code, "fallback codes are longer than drawn codes at current epoch")
}

func TestGeneratePropagatesProbeError(t *testing.T) {
	gen := NewGenerator(0)
	probeErr := errors.New("db down")
	exists := func(ctx context.Context, code string) (bool, error) {
		return false, probeErr
	}

	_, err := gen.Generate(context.Background(), PrefixClass, exists)
	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)
}

func TestFallbackFormat(t *testing.T) {
	code := Fallback(PrefixParent)
	assert.Regexp(t, `^PARENT-[A-Z0-9]+$`, code)
}
