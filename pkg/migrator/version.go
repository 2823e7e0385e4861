package migrator

// VersionAllocator issues migration versions for a single session. It starts
// at the last persisted version and hands out consecutive numbers.
type VersionAllocator struct {
	current int
}

// NewVersionAllocator returns an allocator whose first version is last+1.
func NewVersionAllocator(last int) *VersionAllocator {
	return &VersionAllocator{current: last}
}

// Next reserves and returns the next version.
func (v *VersionAllocator) Next() int {
	v.current++
	return v.current
}

// Current returns the last version handed out, or the starting version when
// none was.
func (v *VersionAllocator) Current() int {
	return v.current
}
