package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	t.Parallel()

	var c Clock = RealClock{}
	before := time.Now()
	c.Sleep(time.Millisecond)
	assert.False(t, c.Now().Before(before))

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
}

func TestMockClockSleepAdvances(t *testing.T) {
	t.Parallel()

	c := NewMockClock(epoch)
	c.Sleep(20 * time.Millisecond)
	c.Sleep(30 * time.Millisecond)

	assert.Equal(t, []time.Duration{20 * time.Millisecond, 30 * time.Millisecond}, c.Sleeps())
	assert.Equal(t, epoch.Add(50*time.Millisecond), c.Now())
}

func TestMockTicker(t *testing.T) {
	t.Parallel()

	c := NewMockClock(epoch)
	tk := c.NewTicker(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticked early")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.Equal(t, epoch.Add(time.Second), got)
	default:
		t.Fatal("expected a tick")
	}

	tk.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerDropsUnreadTicks(t *testing.T) {
	t.Parallel()

	c := NewMockClock(epoch)
	tk := c.NewTicker(time.Second)
	c.Advance(time.Second)
	c.Advance(time.Second)

	require.Len(t, tk.C(), 1)
	assert.Equal(t, epoch.Add(time.Second), <-tk.C())
}
