package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvService_Typed(t *testing.T) {
	t.Setenv("BENCH_BOOL", "false")
	t.Setenv("BENCH_INT", "7")
	t.Setenv("BENCH_DUR", "1500ms")
	t.Setenv("BENCH_BAD_INT", "seven")

	e := &EnvService{}

	assert.False(t, e.GetBool("BENCH_BOOL", true))
	assert.True(t, e.GetBool("BENCH_MISSING", true))
	assert.Equal(t, 7, e.GetInt("BENCH_INT", 1))
	assert.Equal(t, 1, e.GetInt("BENCH_BAD_INT", 1))
	assert.Equal(t, 1500*time.Millisecond, e.GetDuration("BENCH_DUR", time.Second))
	assert.Equal(t, "fallback", e.GetWithDefault("BENCH_MISSING", "fallback"))
}
