package export

import (
	"context"
	"sync"
	"time"

	"github.com/rook-computer/postermaker/internal/state"
)

// Runner starts one export per trigger increment observed on the store.
// Exports run concurrently; nothing serializes them.
type Runner struct {
	Store    *state.Store
	Pipeline *Pipeline
	Logger   exportLogger

	mu     sync.Mutex
	last   uint64
	cancel func()
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// Start records the current trigger as already handled and begins watching.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx, r.stop = context.WithCancel(ctx)
	r.last = r.Store.Snapshot().Config.Export.Trigger
	r.mu.Unlock()
	r.cancel = r.Store.Subscribe(r.observe)
}

// Stop unsubscribes and waits for in-flight exports.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.stop != nil {
		r.stop()
	}
	r.wg.Wait()
}

// Wait blocks until every launched export has finished.
func (r *Runner) Wait() { r.wg.Wait() }

// observe runs inside the store's notification; it must not call back into
// the store, so all status updates happen on the export goroutine.
func (r *Runner) observe(st state.State) {
	r.mu.Lock()
	trigger := st.Config.Export.Trigger
	if trigger <= r.last {
		r.mu.Unlock()
		return
	}
	n := trigger - r.last
	r.last = trigger
	ctx := r.ctx
	r.mu.Unlock()

	for i := uint64(0); i < n; i++ {
		r.wg.Add(1)
		go r.run(ctx)
	}
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()
	r.Store.UpdateExport(func(info *state.ExportInfo) {
		info.Running++
		info.UpdatedAt = time.Now()
	})
	art, err := r.Pipeline.Export(ctx)
	r.Store.UpdateExport(func(info *state.ExportInfo) {
		info.Running--
		info.UpdatedAt = time.Now()
		if err != nil {
			info.Failed++
			info.Err = err.Error()
			return
		}
		info.Completed++
		info.LastFile = art.Name
		info.Err = ""
	})
}
