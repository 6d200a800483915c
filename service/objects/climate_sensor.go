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
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/model"
	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
	"github.com/gpiokit/SignalWorker/service/signal"
)

// frameReader is the part of signal.Reader the sensor needs.
// Split out so tests can script failure sequences.
type frameReader interface {
	Read(ctx context.Context) (signal.Frame, error)
	MinSampleInterval() time.Duration
}

// climateSensor polls one single-wire climate sensor on a fixed
// interval and publishes decoded readings.
type climateSensor struct {
	log     zerolog.Logger
	config  model.Sensor
	line    bridge.Line
	reader  frameReader
	publish func(ClimateActual)
}

// newClimateSensor creates a new climate-sensor object for the given
// configuration.
func newClimateSensor(config model.Sensor, br bridge.API, publish func(ClimateActual), log zerolog.Logger) (Object, error) {
	line, err := br.Line(config.Pin)
	if err != nil {
		return nil, maskAny(err)
	}
	return &climateSensor{
		log:     log,
		config:  config,
		line:    line,
		reader:  signal.NewReader(line, signal.SystemClock, signal.DefaultTiming()),
		publish: publish,
	}, nil
}

// Publish-only object; it has no request topic.
func (o *climateSensor) Type() *ObjectType {
	return nil
}

// Configure is called once to put the object in the desired state.
// The sensor needs a settling period after power-up before the first read.
func (o *climateSensor) Configure(ctx context.Context) error {
	select {
	case <-time.After(o.reader.MinSampleInterval()):
	case <-ctx.Done():
	}
	return nil
}

// Run polls the sensor until the given context is cancelled.
func (o *climateSensor) Run(ctx context.Context, mqttService mqtt.Service, topicPrefix string) error {
	interval := time.Duration(o.config.IntervalSec) * time.Second
	topic := path.Join(topicPrefix, "climate", o.config.ID, "actual")
	for {
		actual, err := o.sample(ctx)
		if err == nil {
			climateHumidityGauge.WithLabelValues(o.config.ID).Set(actual.Humidity)
			climateTemperatureGauge.WithLabelValues(o.config.ID).Set(actual.Temperature)
			o.publish(actual)
			if err := mqttService.Publish(ctx, actual, topic, mqtt.QosAsLeastOnce); err != nil {
				o.log.Warn().Err(err).Msg("failed to publish reading")
			}
		} else if signal.IsLineIOError(err) {
			// The line itself failed; give up on this sensor.
			return maskAny(err)
		} else {
			o.log.Debug().Err(err).Msg("sampling failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
			// Next poll
		}
	}
}

// sample reads one frame, applying the differentiated retry policy:
// no response means the sensor is absent or not ready, so wait for the
// next poll; framing and checksum failures mean the sensor is present
// but this read was corrupted, so retry immediately up to the bound.
func (o *climateSensor) sample(ctx context.Context) (ClimateActual, error) {
	var lastErr error
	for attempt := 0; attempt <= o.config.RetryLimit(); attempt++ {
		if err := ctx.Err(); err != nil {
			return ClimateActual{}, maskAny(err)
		}
		frame, err := o.reader.Read(ctx)
		if err == nil {
			return ClimateActual{
				ID:          o.config.ID,
				Humidity:    frame.RelativeHumidity(),
				Temperature: frame.Celsius(),
				Time:        time.Now(),
			}, nil
		}
		switch {
		case signal.IsNoResponse(err):
			climateReadErrorsTotal.WithLabelValues(o.config.ID, "no-response").Inc()
			return ClimateActual{}, maskAny(err)
		case signal.IsFramingError(err):
			climateReadErrorsTotal.WithLabelValues(o.config.ID, "framing").Inc()
			lastErr = err
		case signal.IsChecksumError(err):
			// Logged distinctly: persistent checksum failures point at
			// interference or a failing sensor, not at scheduler jitter.
			climateReadErrorsTotal.WithLabelValues(o.config.ID, "checksum").Inc()
			o.log.Warn().Err(err).Int("attempt", attempt).Msg("checksum mismatch")
			lastErr = err
		default:
			return ClimateActual{}, maskAny(err)
		}
	}
	return ClimateActual{}, maskAny(lastErr)
}

// Close releases the sensor line.
func (o *climateSensor) Close() error {
	return maskAny(o.line.Close())
}
