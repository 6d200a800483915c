//    Copyright 2024 The GPIOKit authors
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package signal

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Timing holds the calibrated constants of the single-wire protocol.
// The defaults follow the DHT11 datasheet; real hardware or a simulated
// timing source may need different tolerance bands.
type Timing struct {
	// HostStart is how long the host pulls the line LOW to request a frame.
	HostStart time.Duration
	// HostRelease is how long the host drives the line HIGH before
	// releasing it to input mode.
	HostRelease time.Duration
	// AckTimeout bounds each phase of the device acknowledgement.
	AckTimeout time.Duration
	// BitTimeout bounds each level transition during bit reception.
	BitTimeout time.Duration
	// ZeroPulse is the nominal HIGH duration encoding a 0 bit.
	ZeroPulse time.Duration
	// OnePulse is the nominal HIGH duration encoding a 1 bit.
	OnePulse time.Duration
	// Tolerance is the accepted deviation around ZeroPulse or OnePulse.
	// A measured pulse outside both bands is a framing error.
	Tolerance time.Duration
	// MinSampleInterval is the minimum time the device needs between
	// two reads. Callers retrying after NoResponse should wait at
	// least this long.
	MinSampleInterval time.Duration
}

// DefaultTiming returns the DHT11 protocol constants.
func DefaultTiming() Timing {
	return Timing{
		HostStart:         18 * time.Millisecond,
		HostRelease:       30 * time.Microsecond,
		AckTimeout:        200 * time.Microsecond,
		BitTimeout:        150 * time.Microsecond,
		ZeroPulse:         27 * time.Microsecond,
		OnePulse:          70 * time.Microsecond,
		Tolerance:         15 * time.Microsecond,
		MinSampleInterval: time.Second,
	}
}

// frameBits is the fixed number of bits in one frame: 5 bytes.
const frameBits = 40

// Frame is one decoded single-wire frame.
// The checksum has already been validated when a Frame is returned.
type Frame struct {
	Humidity        byte
	HumidityFrac    byte
	Temperature     byte
	TemperatureFrac byte
	Checksum        byte
}

// RelativeHumidity returns the humidity as a percentage.
func (f Frame) RelativeHumidity() float64 {
	return float64(f.Humidity) + float64(f.HumidityFrac)*0.1
}

// Celsius returns the temperature in degrees Celsius.
func (f Frame) Celsius() float64 {
	return float64(f.Temperature) + float64(f.TemperatureFrac)*0.1
}

// validate recomputes the checksum over the four data bytes.
func (f Frame) validate() error {
	// Byte addition wraps, which is exactly the protocol's sum & 0xFF.
	sum := f.Humidity + f.HumidityFrac + f.Temperature + f.TemperatureFrac
	if sum != f.Checksum {
		return errors.Wrapf(ChecksumError, "got 0x%02x, want 0x%02x", f.Checksum, sum)
	}
	return nil
}

// Reader decodes pulse-width encoded frames from a bidirectional line.
// A Reader owns its line exclusively for the duration of one Read call;
// it is not safe for concurrent use on the same line.
type Reader struct {
	line   Line
	clock  Clock
	timing Timing
}

// NewReader creates a Reader on the given line.
// A nil clock selects the SystemClock; a zero timing selects DefaultTiming.
func NewReader(line Line, clock Clock, timing Timing) *Reader {
	if clock == nil {
		clock = SystemClock
	}
	if timing == (Timing{}) {
		timing = DefaultTiming()
	}
	return &Reader{
		line:   line,
		clock:  clock,
		timing: timing,
	}
}

// MinSampleInterval returns the minimum time callers must leave between
// two Read calls.
func (r *Reader) MinSampleInterval() time.Duration {
	return r.timing.MinSampleInterval
}

// Read runs one full request/response cycle and returns the decoded frame.
// Failure modes:
//   - NoResponseError: the device did not complete the acknowledgement
//     within the ack window (sensor absent or not ready).
//   - FramingError: a bit pulse could not be classified (timing problem);
//     no partial frame is returned.
//   - ChecksumError: the frame decoded but failed its integrity check.
//   - LineIOError: the line itself failed.
func (r *Reader) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, maskAny(err)
	}
	if err := r.request(); err != nil {
		return Frame{}, maskAny(err)
	}
	// The line is in input mode from here on, released on every path.
	if err := r.awaitAck(); err != nil {
		return Frame{}, maskAny(err)
	}
	var raw [5]byte
	for i := 0; i < frameBits; i++ {
		bit, err := r.receiveBit()
		if err != nil {
			return Frame{}, errors.Wrapf(err, "bit %d", i)
		}
		raw[i/8] = raw[i/8]<<1 | bit
	}
	frame := Frame{
		Humidity:        raw[0],
		HumidityFrac:    raw[1],
		Temperature:     raw[2],
		TemperatureFrac: raw[3],
		Checksum:        raw[4],
	}
	if err := frame.validate(); err != nil {
		return Frame{}, maskAny(err)
	}
	return frame, nil
}

// request drives the host start signal and releases the line.
func (r *Reader) request() error {
	if err := r.line.SetDirection(DirectionOutput); err != nil {
		return errors.Wrapf(LineIOError, "set output: %v", err)
	}
	if err := r.line.Set(false); err != nil {
		return errors.Wrapf(LineIOError, "drive low: %v", err)
	}
	r.clock.Sleep(r.timing.HostStart)
	if err := r.line.Set(true); err != nil {
		return errors.Wrapf(LineIOError, "drive high: %v", err)
	}
	r.clock.Sleep(r.timing.HostRelease)
	if err := r.line.SetDirection(DirectionInput); err != nil {
		return errors.Wrapf(LineIOError, "set input: %v", err)
	}
	return nil
}

// awaitAck waits for the device to pull the line LOW, HIGH and LOW again.
// The final LOW is the lead-in of the first bit.
func (r *Reader) awaitAck() error {
	for i := 0; i < 3; i++ {
		if _, err := r.line.WaitForEdge(r.timing.AckTimeout); err != nil {
			if IsEdgeTimeout(err) {
				return errors.Wrapf(NoResponseError, "ack phase %d", i)
			}
			return errors.Wrapf(LineIOError, "ack phase %d: %v", i, err)
		}
	}
	return nil
}

// receiveBit measures one HIGH pulse following a LOW lead-in and
// classifies it.
func (r *Reader) receiveBit() (byte, error) {
	// End of the 50us LOW lead-in.
	if _, err := r.line.WaitForEdge(r.timing.BitTimeout); err != nil {
		if IsEdgeTimeout(err) {
			return 0, errors.Wrap(FramingError, "lead-in timeout")
		}
		return 0, errors.Wrapf(LineIOError, "lead-in: %v", err)
	}
	start := r.clock.Now()
	if _, err := r.line.WaitForEdge(r.timing.BitTimeout); err != nil {
		if IsEdgeTimeout(err) {
			return 0, errors.Wrap(FramingError, "pulse timeout")
		}
		return 0, errors.Wrapf(LineIOError, "pulse: %v", err)
	}
	pulse := r.clock.Now() - start
	bit, ok := classifyPulse(pulse, r.timing)
	if !ok {
		return 0, errors.Wrapf(FramingError, "pulse %v fits neither %v nor %v (tolerance %v)",
			pulse, r.timing.ZeroPulse, r.timing.OnePulse, r.timing.Tolerance)
	}
	return bit, nil
}

// classifyPulse maps a measured HIGH duration onto a bit value.
// Returns false when the duration is outside both tolerance bands.
func classifyPulse(d time.Duration, t Timing) (byte, bool) {
	if within(d, t.ZeroPulse, t.Tolerance) {
		return 0, true
	}
	if within(d, t.OnePulse, t.Tolerance) {
		return 1, true
	}
	return 0, false
}

func within(d, nominal, tolerance time.Duration) bool {
	delta := d - nominal
	if delta < 0 {
		delta = -delta
	}
	return delta <= tolerance
}
