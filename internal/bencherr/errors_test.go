package bencherr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	err := InvalidInput("line 7", "latitude %v out of range", 91.5)
	assert.Equal(t, "[INVALID_INPUT] line 7: latitude 91.5 out of range", err.Error())

	wrapped := IO("tmp/workloads/random_queries.csv", "open corpus", fmt.Errorf("permission denied"))
	assert.Equal(t, "[IO] tmp/workloads/random_queries.csv: open corpus: permission denied", wrapped.Error())
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("generate: %w", New(KindInsufficientData, "", "only 5000 rows"))
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrIO))
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindQueryExecution, "d-1", "execute", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrQueryExecution))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	codes := map[int]bool{}
	for _, err := range []error{
		New(KindInvalidInput, "", ""),
		New(KindInsufficientData, "", ""),
		New(KindQueryExecution, "", ""),
		New(KindAggregation, "", ""),
		New(KindIO, "", ""),
		errors.New("plain"),
	} {
		code := ExitCode(err)
		assert.NotZero(t, code)
		assert.False(t, codes[code], "exit code %d reused", code)
		codes[code] = true
	}
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
	assert.Equal(t, KindAggregation, KindOf(fmt.Errorf("wrap: %w", New(KindAggregation, "", "missing"))))
}
