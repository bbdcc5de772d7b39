package arena

import (
	"fmt"

	"github.com/wirebind/wirebind"
)

// Arena is a byte-budgeted allocation authority. It does not hold
// memory itself; it accounts for the decoder's allocations against a
// fixed limit so a single decode can never admit more than the budget.
//
// An Arena serves one decode scope at a time and is not safe for
// concurrent use. Use one arena per decode and Release it when the
// decoded value is no longer needed.
type Arena struct {
	limit uint64
	used  uint64
}

// New returns an arena admitting up to limit bytes before denying
// further allocations.
func New(limit uint64) *Arena {
	return &Arena{limit: limit}
}

// Alloc admits an allocation of size bytes, or reports how far over
// budget the request lands. Implements wirebind.Allocator.
func (a *Arena) Alloc(size uint64) error {
	if size > a.limit-a.used {
		return fmt.Errorf("arena: %d bytes requested, %d of %d remaining", size, a.limit-a.used, a.limit)
	}
	a.used += size
	return nil
}

// Used returns the bytes admitted since creation or the last Release.
func (a *Arena) Used() uint64 {
	return a.used
}

// Limit returns the arena's byte budget.
func (a *Arena) Limit() uint64 {
	return a.limit
}

// Release returns the whole budget in one step. The arena is ready for
// the next decode scope afterwards.
func (a *Arena) Release() {
	a.used = 0
}

// Unlimited returns an authority that admits every allocation. It
// behaves like passing a nil Allocator but keeps call sites explicit.
func Unlimited() wirebind.Allocator {
	return unlimited{}
}

type unlimited struct{}

func (unlimited) Alloc(uint64) error { return nil }
