package scale

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Mock scale behavior: a parcel of about five pounds sits on the platter,
// with roughly one in ten readings fluctuating as if it were nudged.
const (
	mockBaseWeightLb = 5.0
	mockJitterLb     = 0.2
	mockUnstableRate = 0.1
)

type mockDevice struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	base float64
}

func newMockDevice(seed int64) *mockDevice {
	return &mockDevice{
		rnd:  rand.New(rand.NewSource(seed)),
		base: mockBaseWeightLb,
	}
}

func (d *mockDevice) Read() (Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stable := d.rnd.Float64() > mockUnstableRate
	value := d.base
	if !stable {
		value += d.rnd.Float64()*2*mockJitterLb - mockJitterLb
	}

	return Sample{
		Value:  round2(value),
		Unit:   UnitLb,
		Stable: stable,
		At:     time.Now(),
	}, nil
}

func (d *mockDevice) Close() error { return nil }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
