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
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/model"
	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
	"github.com/gpiokit/SignalWorker/service/signal"
)

const patternQueueSize = 16

var (
	dimmerType = &ObjectType{
		TopicSuffix: "dimmer/request",
		NextMessage: func(ctx context.Context, subscription mqtt.Subscription, service Service) error {
			var msg DimmerRequest
			if err := subscription.NextMsg(ctx, &msg); err != nil {
				return maskAny(err)
			}
			if obj, found := service.ObjectByID(msg.ID); found {
				if x, ok := obj.(*dimmer); ok {
					if err := x.ProcessMessage(ctx, msg); err != nil {
						return maskAny(err)
					}
				} else {
					return errors.Errorf("Expected object of type dimmer")
				}
			}
			return nil
		},
	}
)

// dimmer drives one PWM output.
// Requests arrive over MQTT; a bounded queue of pattern descriptors is
// consumed by the run loop, which owns the PWM session.
type dimmer struct {
	log      zerolog.Logger
	config   model.PWMOutput
	line     bridge.Line
	pwm      *signal.PWM
	patterns chan patternSpec
}

// newDimmer creates a new dimmer object for the given configuration.
func newDimmer(config model.PWMOutput, br bridge.API, log zerolog.Logger) (Object, error) {
	line, err := br.Line(config.Pin)
	if err != nil {
		return nil, maskAny(err)
	}
	return &dimmer{
		log:      log,
		config:   config,
		line:     line,
		patterns: make(chan patternSpec, patternQueueSize),
	}, nil
}

// Return the type of this object.
func (o *dimmer) Type() *ObjectType {
	return dimmerType
}

// Configure is called once to put the object in the desired state.
// It starts the PWM session at the configured initial duty cycle.
func (o *dimmer) Configure(ctx context.Context) error {
	pwm, err := signal.StartPWM(o.line, signal.SystemClock, o.config.FrequencyHz, o.config.InitialDutyPercent)
	if err != nil {
		return maskAny(err)
	}
	o.pwm = pwm
	return nil
}

// Run consumes queued pattern descriptors until the context is cancelled.
// A newly queued descriptor preempts the running pattern at its next step.
func (o *dimmer) Run(ctx context.Context, mqttService mqtt.Service, topicPrefix string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case spec := <-o.patterns:
			if err := o.runPattern(ctx, spec); err != nil {
				return maskAny(err)
			}
		}
	}
}

// runPattern advances one pattern until it completes, is preempted or
// the context is cancelled.
func (o *dimmer) runPattern(ctx context.Context, spec patternSpec) error {
	state := newPatternState(spec)
	for {
		if err := o.pwm.SetDuty(state.step()); err != nil {
			return maskAny(err)
		}
		dimmerDutyGauge.WithLabelValues(o.config.ID).Set(o.pwm.Duty())
		if state.done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case next := <-o.patterns:
			state = newPatternState(next)
		case <-time.After(spec.stepInterval):
			// Next step
		}
	}
}

// ProcessMessage validates a request and queues its pattern descriptor.
// A full queue rejects the request rather than blocking the MQTT loop.
func (o *dimmer) ProcessMessage(ctx context.Context, r DimmerRequest) error {
	log := o.log.With().Str("pattern", string(r.Pattern)).Logger()
	spec, err := specForRequest(r)
	if err != nil {
		log.Warn().Err(err).Msg("invalid dimmer request")
		return nil
	}
	dimmerRequestsTotal.WithLabelValues(o.config.ID).Inc()
	select {
	case o.patterns <- spec:
		log.Debug().Msg("queued dimmer request")
	default:
		dimmerRequestsDroppedTotal.WithLabelValues(o.config.ID).Inc()
		log.Warn().Msg("pattern queue full; request dropped")
	}
	return nil
}

// Close stops the PWM session (forcing the line LOW) and releases the line.
func (o *dimmer) Close() error {
	var stopErr error
	if o.pwm != nil {
		stopErr = o.pwm.Stop()
		o.pwm = nil
	}
	if err := o.line.Close(); err != nil {
		return maskAny(err)
	}
	return maskAny(stopErr)
}
