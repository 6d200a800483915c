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

package objects

import (
	"context"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/model"
	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
	"github.com/gpiokit/SignalWorker/service/signal"
)

var (
	displayType = &ObjectType{
		TopicSuffix: "display/request",
		NextMessage: func(ctx context.Context, subscription mqtt.Subscription, service Service) error {
			var msg DisplayRequest
			if err := subscription.NextMsg(ctx, &msg); err != nil {
				return maskAny(err)
			}
			if obj, found := service.ObjectByID(msg.ID); found {
				if x, ok := obj.(*matrixDisplay); ok {
					if err := x.ProcessMessage(ctx, msg); err != nil {
						return maskAny(err)
					}
				} else {
					return errors.Errorf("Expected object of type matrixDisplay")
				}
			}
			return nil
		},
	}
)

// matrixDisplay programs a chain of display-driver chips through the
// shift transmitter.
type matrixDisplay struct {
	log    zerolog.Logger
	config model.Display
	data   bridge.Line
	clock  bridge.Line
	latch  bridge.Line
	tx     *signal.ShiftTransmitter
}

// newMatrixDisplay creates a new matrix-display object for the given
// configuration.
func newMatrixDisplay(config model.Display, br bridge.API, log zerolog.Logger) (Object, error) {
	data, err := br.Line(config.DataPin)
	if err != nil {
		return nil, maskAny(err)
	}
	clock, err := br.Line(config.ClockPin)
	if err != nil {
		data.Close()
		return nil, maskAny(err)
	}
	latch, err := br.Line(config.LatchPin)
	if err != nil {
		data.Close()
		clock.Close()
		return nil, maskAny(err)
	}
	return &matrixDisplay{
		log:    log,
		config: config,
		data:   data,
		clock:  clock,
		latch:  latch,
	}, nil
}

// Return the type of this object.
func (o *matrixDisplay) Type() *ObjectType {
	return displayType
}

// Configure is called once to put the object in the desired state.
// It runs the driver-chip initialization sequence on every chip in
// the chain.
func (o *matrixDisplay) Configure(ctx context.Context) error {
	tx, err := signal.NewShiftTransmitter(o.data, o.clock, o.latch, signal.SystemClock, 0)
	if err != nil {
		return maskAny(err)
	}
	o.tx = tx
	init := []signal.RegisterWord{
		{Register: signal.RegDisplayTest, Value: 0x00},
		{Register: signal.RegScanLimit, Value: 0x07},
		{Register: signal.RegDecodeMode, Value: 0x00},
		{Register: signal.RegShutdown, Value: 0x01},
		{Register: signal.RegIntensity, Value: byte(o.config.Intensity)},
	}
	for _, w := range init {
		if err := o.broadcast(w.Register, w.Value); err != nil {
			return maskAny(err)
		}
	}
	return maskAny(o.clear())
}

// Run the object until the given context is cancelled.
func (o *matrixDisplay) Run(ctx context.Context, mqttService mqtt.Service, topicPrefix string) error {
	// All work happens in ProcessMessage.
	<-ctx.Done()
	return nil
}

// ProcessMessage acts upon a given request.
func (o *matrixDisplay) ProcessMessage(ctx context.Context, r DisplayRequest) error {
	displayRequestsTotal.WithLabelValues(o.config.ID).Inc()
	if r.Intensity != nil {
		if *r.Intensity < 0 || *r.Intensity > 15 {
			o.log.Warn().Int("intensity", *r.Intensity).Msg("intensity out of range; request ignored")
		} else if err := o.broadcast(signal.RegIntensity, byte(*r.Intensity)); err != nil {
			return maskAny(err)
		}
	}
	if r.Rows != nil {
		for row, value := range r.Rows {
			if err := o.broadcast(signal.RegDigit0+byte(row), value); err != nil {
				return maskAny(err)
			}
		}
	}
	return nil
}

// broadcast writes the same register frame to every chip in the chain.
func (o *matrixDisplay) broadcast(register, value byte) error {
	words := make([]signal.RegisterWord, o.config.Chips())
	for i := range words {
		words[i] = signal.RegisterWord{Register: register, Value: value}
	}
	return maskAny(o.tx.WriteChain(words))
}

// clear blanks all row registers.
func (o *matrixDisplay) clear() error {
	for row := byte(0); row < 8; row++ {
		if err := o.broadcast(signal.RegDigit0+row, 0x00); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

// Close blanks the display and releases its lines.
func (o *matrixDisplay) Close() error {
	var ae aerr.AggregateError
	if o.tx != nil {
		// Shutdown mode blanks the chips without losing register content.
		if err := o.broadcast(signal.RegShutdown, 0x00); err != nil {
			ae.Add(err)
		}
		o.tx = nil
	}
	for _, l := range []bridge.Line{o.data, o.clock, o.latch} {
		if err := l.Close(); err != nil {
			ae.Add(err)
		}
	}
	return ae.AsError()
}
