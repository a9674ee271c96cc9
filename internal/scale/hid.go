package scale

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Dymo postal scales (M10/M25 family) expose a fixed 6-byte HID report:
//
//	byte 0: report id
//	byte 1: status (0x04 = stable, 0x02 = fluctuating)
//	byte 2-3: weight, little endian, in 1/100 of a unit
//	byte 4: unit code (2 = kg, 11 = lb, 12 = oz)
//
// Vendor id 0x0922, product ids 0x8003/0x8004/0x8007. The reader does not
// probe USB descriptors; it reads whichever hidraw paths are configured.
const (
	dymoVendorID = 0x0922

	reportLen = 6

	unitCodeKg = 2
	unitCodeLb = 11
	unitCodeOz = 12

	hidReadTimeout = 200 * time.Millisecond
)

var dymoProductIDs = []uint16{0x8003, 0x8004, 0x8007}

type hidDevice struct {
	f    *os.File
	path string
}

// openHID tries each candidate hidraw path and returns the first that opens.
func openHID(paths []string) (*hidDevice, error) {
	var lastErr error
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_RDONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		return &hidDevice{f: f, path: p}, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no device paths configured")
	}
	return nil, fmt.Errorf("no HID scale found: %w", lastErr)
}

// Read fetches the next report. A deadline keeps a silent device from
// stalling the acquisition loop; no fresh report yields a zero sample.
func (d *hidDevice) Read() (Sample, error) {
	_ = d.f.SetReadDeadline(time.Now().Add(hidReadTimeout))

	buf := make([]byte, reportLen+2)
	n, err := d.f.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return Sample{Unit: UnitLb, At: time.Now()}, nil
		}
		return Sample{}, fmt.Errorf("read %s: %w", d.path, err)
	}
	return parseDymoReport(buf[:n]), nil
}

func (d *hidDevice) Close() error {
	return d.f.Close()
}

// parseDymoReport decodes one HID report. Short or garbled reports decode
// to a zero, unstable sample. Ounce readings are normalized to pounds.
func parseDymoReport(data []byte) Sample {
	now := time.Now()
	if len(data) < 5 {
		return Sample{Unit: UnitLb, At: now}
	}

	stable := data[1]&0x04 != 0
	raw := uint16(data[2]) | uint16(data[3])<<8
	value := float64(raw) / 100.0

	unit := UnitKg
	switch data[4] {
	case unitCodeLb:
		unit = UnitLb
	case unitCodeOz:
		value /= 16.0
		unit = UnitLb
	case unitCodeKg:
		unit = UnitKg
	default:
		unit = UnitLb
	}

	return Sample{Value: value, Unit: unit, Stable: stable, At: now}
}
