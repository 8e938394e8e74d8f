package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowAdvancesWithSleep(t *testing.T) {
	c := New(10.0) // 10x speed: Sleep(10ms) real-sleeps ~1ms, Now advances ~10ms.
	before := c.Now()
	c.Sleep(10 * time.Millisecond)
	after := c.Now()
	require.Greater(t, after, before)
}

func TestTimeUntilNextMultiple(t *testing.T) {
	c := New(1.0)
	d := c.TimeUntilNextMultiple(90)
	require.True(t, d > 0 && d <= 90)
}

func TestTimeUntilNextMultipleZeroInterval(t *testing.T) {
	c := New(1.0)
	require.Equal(t, 0.0, c.TimeUntilNextMultiple(0))
}
