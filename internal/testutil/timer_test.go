package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTimer_FireReleasesOldestWaiter(t *testing.T) {
	m := NewManualTimer()

	first := m.After(time.Second)
	second := m.After(time.Second)
	assert.Equal(t, 2, m.Pending())

	require.True(t, m.Fire())
	select {
	case <-first:
	default:
		t.Fatal("first waiter not released")
	}
	select {
	case <-second:
		t.Fatal("second waiter released early")
	default:
	}

	require.True(t, m.Fire())
	assert.False(t, m.Fire())
}

func TestSequentialIDs(t *testing.T) {
	gen := SequentialIDs("run")
	assert.Equal(t, "run-0001", gen())
	assert.Equal(t, "run-0002", gen())
}
