package sched

// Budget is the non-negative resource tuple every Task and Nursery
// carries (spec.md §3.2/§4.4). All fields saturate on add and require an
// all-or-nothing check on subtract -- a task never ends up with a
// partially-debited budget.
type Budget struct {
	Ops         uint64
	MemoryBytes uint64
	SpawnCount  uint64
	ChannelOps  uint64
	Syscalls    uint64
}

// BudgetCost describes what one unit of each tracked resource costs to
// debit. spec.md §4.4 names these constants but gives no numbers; the
// values below are implementer-chosen defaults (documented here rather
// than invented silently -- see DESIGN.md).
var BudgetCost = struct {
	Op         uint64
	Spawn      uint64
	ChannelOp  uint64
	Syscall    uint64
	AllocByte  uint64
}{
	Op:        1,
	Spawn:     16,
	ChannelOp: 4,
	Syscall:   32,
	AllocByte: 1,
}

// Profile holds the three named budget presets spec.md §4.4 requires.
// `service` is generous (a long-lived top-level nursery), `cluster`
// sits under it for a group of related tasks, and `child` is the tight
// allotment handed to an individual leaf task.
var Profile = struct {
	Service Budget
	Cluster Budget
	Child   Budget
}{
	Service: Budget{Ops: 1 << 24, MemoryBytes: 1 << 30, SpawnCount: 1 << 16, ChannelOps: 1 << 20, Syscalls: 1 << 16},
	Cluster: Budget{Ops: 1 << 20, MemoryBytes: 1 << 26, SpawnCount: 1 << 12, ChannelOps: 1 << 16, Syscalls: 1 << 12},
	Child:   Budget{Ops: 1 << 16, MemoryBytes: 1 << 20, SpawnCount: 64, ChannelOps: 1 << 10, Syscalls: 256},
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// Add returns other folded into b field-by-field, saturating
// instead of overflowing.
func (b Budget) Add(other Budget) Budget {
	return Budget{
		Ops:         saturatingAdd(b.Ops, other.Ops),
		MemoryBytes: saturatingAdd(b.MemoryBytes, other.MemoryBytes),
		SpawnCount:  saturatingAdd(b.SpawnCount, other.SpawnCount),
		ChannelOps:  saturatingAdd(b.ChannelOps, other.ChannelOps),
		Syscalls:    saturatingAdd(b.Syscalls, other.Syscalls),
	}
}

// Sub attempts to debit cost from b. It is all-or-nothing: if any field
// would go negative, nothing is debited and ok is false.
func (b Budget) Sub(cost Budget) (result Budget, ok bool) {
	if b.Ops < cost.Ops || b.MemoryBytes < cost.MemoryBytes ||
		b.SpawnCount < cost.SpawnCount || b.ChannelOps < cost.ChannelOps ||
		b.Syscalls < cost.Syscalls {
		return b, false
	}
	return Budget{
		Ops:         b.Ops - cost.Ops,
		MemoryBytes: b.MemoryBytes - cost.MemoryBytes,
		SpawnCount:  b.SpawnCount - cost.SpawnCount,
		ChannelOps:  b.ChannelOps - cost.ChannelOps,
		Syscalls:    b.Syscalls - cost.Syscalls,
	}, true
}

// Clamp caps every field of b at the matching field of ceiling.
func (b Budget) Clamp(ceiling Budget) Budget {
	clamp := func(v, max uint64) uint64 {
		if v > max {
			return max
		}
		return v
	}
	return Budget{
		Ops:         clamp(b.Ops, ceiling.Ops),
		MemoryBytes: clamp(b.MemoryBytes, ceiling.MemoryBytes),
		SpawnCount:  clamp(b.SpawnCount, ceiling.SpawnCount),
		ChannelOps:  clamp(b.ChannelOps, ceiling.ChannelOps),
		Syscalls:    clamp(b.Syscalls, ceiling.Syscalls),
	}
}

// Exhausted reports the exhaustion condition of §4.4: ops or memory
// reaching zero is enough to starve a task regardless of the other
// three fields.
func (b Budget) Exhausted() bool {
	return b.Ops == 0 || b.MemoryBytes == 0
}
