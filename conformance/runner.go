package conformance

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// Exports a conformance guest must provide, besides a linear memory.
const (
	guestAlloc     = "alloc"
	guestRoundTrip = "roundtrip_test_case"
)

// Runner drives a compiled conformance guest. A guest receives the
// host's encoding of a corpus case, decodes it with its own codec,
// asserts the value matches its own copy of that case, re-encodes the
// copy and reports the bytes back through two u32 cells.
type Runner struct {
	runtime wazero.Runtime
	module  api.Module
	alloc   api.Function
	round   api.Function
}

// NewRunner instantiates a guest from raw wasm bytes. WASI preview 1
// is provided for guests that link against it; guests that do not
// import it are unaffected.
func NewRunner(ctx context.Context, wasmBytes []byte) (*Runner, error) {
	runtime := wazero.NewRuntime(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("compiling guest: %w", err)
	}

	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("conformance-guest"))
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating guest: %w", err)
	}

	// Reactor-style guests expose their initialization this way and
	// nothing runs it for us.
	if init := module.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			runtime.Close(ctx)
			return nil, fmt.Errorf("guest _initialize: %w", err)
		}
	}

	r := &Runner{
		runtime: runtime,
		module:  module,
		alloc:   module.ExportedFunction(guestAlloc),
		round:   module.ExportedFunction(guestRoundTrip),
	}
	if r.alloc == nil || r.round == nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("guest must export %q and %q", guestAlloc, guestRoundTrip)
	}
	if module.Memory() == nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("guest exports no memory")
	}
	return r, nil
}

// Close releases the guest instance and its runtime.
func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// RoundTrip hands the case's wire bytes to the guest and returns the
// guest's own encoding of the same value. Guests assert the decoded
// value against their copy internally, so a semantic disagreement
// surfaces as a trap from the call, not as a byte difference.
func (r *Runner) RoundTrip(ctx context.Context, c Case) ([]byte, error) {
	if c.RefID < 0 {
		return nil, fmt.Errorf("case %q carries no reference id", c.Name)
	}

	mem := r.module.Memory()

	inPtr, err := r.allocate(ctx, uint64(len(c.Wire)))
	if err != nil {
		return nil, err
	}
	if len(c.Wire) > 0 && !mem.Write(uint32(inPtr), c.Wire) {
		return nil, fmt.Errorf("writing %d input bytes at %#x", len(c.Wire), inPtr)
	}

	outPtrCell, err := r.allocate(ctx, 4)
	if err != nil {
		return nil, err
	}
	outLenCell, err := r.allocate(ctx, 4)
	if err != nil {
		return nil, err
	}

	Logger().Debug("guest roundtrip",
		zap.Int("id", c.RefID),
		zap.String("case", c.Name),
		zap.Int("wire_len", len(c.Wire)))

	_, err = r.round.Call(ctx,
		uint64(c.RefID), inPtr, uint64(len(c.Wire)), outPtrCell, outLenCell)
	if err != nil {
		return nil, fmt.Errorf("guest rejected case %d: %w", c.RefID, err)
	}

	outPtr, ok := mem.ReadUint32Le(uint32(outPtrCell))
	if !ok {
		return nil, fmt.Errorf("output pointer cell at %#x out of range", outPtrCell)
	}
	outLen, ok := mem.ReadUint32Le(uint32(outLenCell))
	if !ok {
		return nil, fmt.Errorf("output length cell at %#x out of range", outLenCell)
	}

	view, ok := mem.Read(outPtr, outLen)
	if !ok {
		return nil, fmt.Errorf("guest output of %d bytes at %#x out of range", outLen, outPtr)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

func (r *Runner) allocate(ctx context.Context, size uint64) (uint64, error) {
	results, err := r.alloc.Call(ctx, size)
	if err != nil {
		return 0, fmt.Errorf("guest alloc(%d): %w", size, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("guest alloc returned %d results, want 1", len(results))
	}
	return results[0], nil
}
