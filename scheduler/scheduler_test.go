package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/dimy/clock"
)

func TestRunsInTimeOrder(t *testing.T) {
	s := New(clock.New(1000)) // fast clock, test stays quick
	var order []string

	s.Enter(0.02, 1, func(sch *Scheduler) { order = append(order, "second") })
	s.Enter(0.01, 1, func(sch *Scheduler) { order = append(order, "first") })
	s.Enter(0.03, 1, func(sch *Scheduler) { order = append(order, "third") })

	err := s.Run()
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTiesBreakByPriorityAscending(t *testing.T) {
	s := New(clock.New(1000))
	var order []string

	s.EnterAbs(0, 2, func(sch *Scheduler) { order = append(order, "dbf_cycle") })
	s.EnterAbs(0, 1, func(sch *Scheduler) { order = append(order, "qbf_create") })

	err := s.Run()
	require.NoError(t, err)
	require.Equal(t, []string{"qbf_create", "dbf_cycle"}, order)
}

func TestStopUnwindsRun(t *testing.T) {
	s := New(clock.New(1000))
	ran := 0

	s.Enter(0, 1, func(sch *Scheduler) {
		ran++
		sch.Stop()
	})
	s.Enter(0, 1, func(sch *Scheduler) {
		ran++
	})

	err := s.Run()
	require.ErrorIs(t, err, ErrStop)
	require.Equal(t, 1, ran)
}

func TestEmptyQueueReturnsNilError(t *testing.T) {
	s := New(clock.New(1000))
	require.NoError(t, s.Run())
}
