package scale

import (
	"context"
	"errors"
	"time"
)

// Unit is the measurement unit a sample is expressed in.
type Unit string

const (
	UnitLb Unit = "lb"
	UnitKg Unit = "kg"
)

const lbPerKg = 2.20462

// Sample is one weight reading. Immutable once produced.
type Sample struct {
	Value  float64   `json:"value"`
	Unit   Unit      `json:"unit"`
	Stable bool      `json:"stable"`
	At     time.Time `json:"at"`
}

// Pounds returns the sample value normalized to pounds.
func (s Sample) Pounds() float64 {
	if s.Unit == UnitKg {
		return s.Value * lbPerKg
	}
	return s.Value
}

// State describes the reader's connection to the underlying device.
type State int

const (
	StateDisconnected State = iota
	StateMock
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateMock:
		return "mock"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	// ErrUnavailable means no device is connected; callers should degrade,
	// not retry in a hot loop.
	ErrUnavailable = errors.New("scale unavailable")

	// ErrStableTimeout means no stable sample arrived within the wait window.
	ErrStableTimeout = errors.New("timed out waiting for stable reading")
)

// Device is a raw sample source: the Dymo HID transport or the mock.
// Read never blocks longer than one poll interval; a device with no fresh
// report returns a zero, unstable sample rather than an error.
type Device interface {
	Read() (Sample, error)
	Close() error
}

// EventSink receives device lifecycle events (connect, fallback, disconnect).
type EventSink interface {
	Record(ctx context.Context, typ, message string, meta map[string]any) error
}
