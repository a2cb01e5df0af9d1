package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/state"
)

type SimFaults struct {
	// ExportFail makes every export delivery fail.
	ExportFail bool `json:"exportFail"`
	// ExportDelayMs holds each delivery back, to watch the running count.
	ExportDelayMs int64 `json:"exportDelayMs"`
}

type SimControl struct {
	store           *state.Store
	startupScenario string
	currentScenario atomic.Value // string

	faults struct {
		mu sync.RWMutex
		v  SimFaults
	}
}

func NewSimControl(store *state.Store, startupScenario string) *SimControl {
	if store == nil {
		store = state.NewStore()
	}
	c := &SimControl{store: store, startupScenario: strings.TrimSpace(startupScenario)}
	if c.startupScenario == "" {
		c.startupScenario = "default"
	}
	c.currentScenario.Store(c.startupScenario)
	return c
}

func (c *SimControl) ApplyScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.startupScenario
	}
	if err := seedScenario(c.store, name); err != nil {
		return err
	}
	c.currentScenario.Store(name)
	return nil
}

func (c *SimControl) Reset() error {
	c.SetFaults(SimFaults{})
	return c.ApplyScenario(c.startupScenario)
}

func (c *SimControl) Faults() SimFaults {
	c.faults.mu.RLock()
	defer c.faults.mu.RUnlock()
	return c.faults.v
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.faults.mu.Lock()
	c.faults.v = v
	c.faults.mu.Unlock()
}

// Sink wraps next with the configured delivery faults.
func (c *SimControl) Sink(next export.Sink) export.Sink {
	return faultSink{control: c, next: next}
}

type faultSink struct {
	control *SimControl
	next    export.Sink
}

func (s faultSink) Deliver(ctx context.Context, art export.Artifact) error {
	faults := s.control.Faults()
	if faults.ExportDelayMs > 0 {
		timer := time.NewTimer(time.Duration(faults.ExportDelayMs) * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if faults.ExportFail {
		return errors.New("simulated export failure")
	}
	return s.next.Deliver(ctx, art)
}

func registerSimEndpoints(handler http.Handler, control *SimControl) {
	mux, ok := handler.(*http.ServeMux)
	if !ok {
		// Only supported when the simulator uses the default mux.
		return
	}

	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.Reset(); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/scenario", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"current": control.currentScenario.Load(), "available": scenarioNames()})
	})

	mux.HandleFunc("/sim/scenario/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.ApplyScenario(r.PathValue("name")); err != nil {
			writeSimError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
			return
		case http.MethodPost:
			var patch struct {
				ExportFail    *bool  `json:"exportFail"`
				ExportDelayMs *int64 `json:"exportDelayMs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.ExportFail != nil {
				current.ExportFail = *patch.ExportFail
			}
			if patch.ExportDelayMs != nil {
				current.ExportDelayMs = max(*patch.ExportDelayMs, 0)
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
