// Package arena provides allocation authorities for decoding.
//
// The decoder clears every allocation it makes on behalf of untrusted
// input through a wirebind.Allocator before touching the Go heap. An
// Arena is the budgeted implementation: it admits allocations until a
// byte limit is reached and then denies everything, turning a crafted
// allocation bomb into a clean out_of_memory failure instead of
// unbounded memory growth.
//
// The decoder does not unwind its accounting on error paths. Decode
// inside one arena per attempt and Release it afterwards, success or
// not:
//
//	a := arena.New(1 << 20)
//	defer a.Release()
//	v, err := codec.Deserialize(plan, input, a, 64)
//
// Release resets the whole budget in one step, mirroring the scoped
// region the format is designed around.
package arena
