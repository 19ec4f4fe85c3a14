package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 7: for all (a, b) of the same budget kind, a.add(b)
// saturates and never overflows.
func TestBudget_AddSaturates(t *testing.T) {
	max := Budget{Ops: ^uint64(0), MemoryBytes: ^uint64(0), SpawnCount: ^uint64(0), ChannelOps: ^uint64(0), Syscalls: ^uint64(0)}
	one := Budget{Ops: 1, MemoryBytes: 1, SpawnCount: 1, ChannelOps: 1, Syscalls: 1}

	assert.Equal(t, max, max.Add(one), "add at max should saturate")

	a := Budget{Ops: 10, MemoryBytes: 20, SpawnCount: 1, ChannelOps: 2, Syscalls: 3}
	b := Budget{Ops: 5, MemoryBytes: 5, SpawnCount: 1, ChannelOps: 1, Syscalls: 1}
	want := Budget{Ops: 15, MemoryBytes: 25, SpawnCount: 2, ChannelOps: 3, Syscalls: 4}
	assert.Equal(t, want, a.Add(b))
}

func TestBudget_SubAllOrNothing(t *testing.T) {
	b := Budget{Ops: 5, MemoryBytes: 5, SpawnCount: 5, ChannelOps: 5, Syscalls: 5}
	cost := Budget{Ops: 10}

	result, ok := b.Sub(cost)
	require.False(t, ok, "expected Sub to fail when one field is insufficient")
	assert.Equal(t, b, result, "failed Sub must not partially debit")

	result, ok = b.Sub(Budget{Ops: 1, MemoryBytes: 1, SpawnCount: 1, ChannelOps: 1, Syscalls: 1})
	require.True(t, ok, "expected Sub to succeed")
	want := Budget{Ops: 4, MemoryBytes: 4, SpawnCount: 4, ChannelOps: 4, Syscalls: 4}
	assert.Equal(t, want, result)
}

func TestBudget_Exhausted(t *testing.T) {
	assert.False(t, (Budget{Ops: 1, MemoryBytes: 1}).Exhausted(), "non-zero ops/memory should not be exhausted")
	assert.True(t, (Budget{Ops: 0, MemoryBytes: 1}).Exhausted(), "zero ops should be exhausted")
	assert.True(t, (Budget{Ops: 1, MemoryBytes: 0}).Exhausted(), "zero memory should be exhausted")
}

func TestBudget_Clamp(t *testing.T) {
	b := Budget{Ops: 100, MemoryBytes: 100}
	ceiling := Budget{Ops: 10, MemoryBytes: 1000}
	got := b.Clamp(ceiling)
	assert.Equal(t, uint64(10), got.Ops)
	assert.Equal(t, uint64(100), got.MemoryBytes)
}
