package deque_test

import (
	"testing"

	"github.com/momentics/lazypool/internal/deque"
	"github.com/stretchr/testify/require"
)

func TestMutexDequeEmpty(t *testing.T) {
	m := deque.NewMutexDeque[int]()
	_, ok := m.PopBottom()
	require.False(t, ok)
	_, ok = m.StealTop()
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestMutexDequePushBottomPopBottomIsLIFO(t *testing.T) {
	m := deque.NewMutexDeque[int]()
	m.PushBottom(1)
	m.PushBottom(2)
	m.PushBottom(3)
	require.Equal(t, 3, m.Len())

	v, ok := m.PopBottom()
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestMutexDequeStealTopIsFIFO(t *testing.T) {
	m := deque.NewMutexDeque[int]()
	m.PushBottom(1)
	m.PushBottom(2)
	m.PushBottom(3)

	v, ok := m.StealTop()
	require.True(t, ok)
	require.Equal(t, 1, v)
}
