package taskbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mochi-browser/taskbridge/core"
)

func TestNewBridge_Backends(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Capability
		wantErr bool
	}{
		{"auto", Options{}, CapabilityThreaded, false},
		{"threaded", Options{Backend: "threaded", Workers: 3}, CapabilityThreaded, false},
		{"cooperative with host", Options{Backend: "cooperative", Host: core.NewManualHost()}, CapabilityCooperative, false},
		{"unknown", Options{Backend: "green-threads"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBridge(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBridge() error = %v", err)
			}
			defer b.Shutdown()

			if got := b.Backend().Capability(); got != tt.want {
				t.Errorf("Capability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGlobalBridge(t *testing.T) {
	// Ensure clean state
	ShutdownGlobalBridge()
	defer ShutdownGlobalBridge()

	if err := InitGlobalBridge(Options{Backend: "threaded", Workers: 2}); err != nil {
		t.Fatalf("InitGlobalBridge() error = %v", err)
	}
	first := GetGlobalBridge()

	// Second init is a no-op
	if err := InitGlobalBridge(Options{Backend: "threaded", Workers: 8}); err != nil {
		t.Fatalf("InitGlobalBridge() error = %v", err)
	}
	if GetGlobalBridge() != first {
		t.Error("InitGlobalBridge replaced an existing bridge")
	}

	var got Outcome[string]
	delivered := false
	if _, err := Spawn(first, Func(func(ctx context.Context) (string, error) {
		return "hello", nil
	}), func(o Outcome[string]) {
		got = o
		delivered = true
	}); err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := first.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if !delivered || got.Value != "hello" {
		t.Errorf("outcome = %v, delivered = %v", got, delivered)
	}

	ShutdownGlobalBridge()
	if !first.IsClosed() {
		t.Error("ShutdownGlobalBridge did not shut the bridge down")
	}
	if _, err := Spawn(first, Sleep(time.Millisecond), nil); !errors.Is(err, ErrBackendClosed) {
		t.Errorf("Spawn() after shutdown = %v, want ErrBackendClosed", err)
	}
}

func TestGetGlobalBridge_PanicsWhenUninitialized(t *testing.T) {
	ShutdownGlobalBridge()

	defer func() {
		if r := recover(); r == nil {
			t.Error("GetGlobalBridge() should panic before InitGlobalBridge")
		}
	}()
	GetGlobalBridge()
}
