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

package service

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
	"github.com/gpiokit/SignalWorker/service/objects"
)

type Service interface {
	// Run the worker until the given context is cancelled.
	Run(ctx context.Context) error
	// Actuals returns the most recent reading of every climate sensor.
	Actuals() []objects.ClimateActual
}

type Config struct {
	ProgramVersion string
	// Path of the local configuration file
	ConfigPath string
	// Prefix for all MQTT topics.
	// Defaults to "signalworker/<host-id>".
	TopicPrefix string
}

type Dependencies struct {
	Log    zerolog.Logger
	Bridge bridge.API
	MQTT   mqtt.Service
}

type service struct {
	Config
	Dependencies

	hostID  string
	objects objects.Service

	mutex       sync.Mutex
	lastActuals map[string]objects.ClimateActual
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	deps.Log = deps.Log.With().Str("component", "service").Logger()
	hostID, err := createHostID()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create host ID")
	}
	if conf.TopicPrefix == "" {
		conf.TopicPrefix = path.Join("signalworker", hostID)
	}
	config, err := loadConfig(conf.ConfigPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load configuration from '%s'", conf.ConfigPath)
	}
	objService, err := objects.NewService(config, deps.Bridge, conf.TopicPrefix, deps.Log)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create object service")
	}
	s := &service{
		Config:       conf,
		Dependencies: deps,
		hostID:       hostID,
		objects:      objService,
		lastActuals:  make(map[string]objects.ClimateActual),
	}
	if err := objService.SubscribeActuals(s.recordActual); err != nil {
		return nil, errors.Wrap(err, "Failed to subscribe to actuals")
	}
	return s, nil
}

// recordActual keeps the most recent reading per sensor.
func (s *service) recordActual(actual objects.ClimateActual) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActuals[actual.ID] = actual
}

// Actuals returns the most recent reading of every climate sensor.
func (s *service) Actuals() []objects.ClimateActual {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	result := make([]objects.ClimateActual, 0, len(s.lastActuals))
	for _, actual := range s.lastActuals {
		result = append(result, actual)
	}
	return result
}

// Run configures all objects and runs them until the given context
// is cancelled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log.With().Str("id", s.hostID).Logger()
	defer s.Bridge.Close()
	defer s.objects.Close()

	log.Info().Str("topic-prefix", s.TopicPrefix).Msg("Starting worker")
	s.Bridge.BlinkGreenLED(time.Millisecond * 250)
	s.Bridge.SetRedLED(false)

	if err := s.objects.Configure(ctx); err != nil {
		// Partial configuration is survivable; the failed objects are
		// not exposed.
		log.Error().Err(err).Msg("Failed to configure some objects")
		s.Bridge.BlinkRedLED(time.Millisecond * 250)
	} else {
		s.Bridge.SetRedLED(false)
	}
	s.Bridge.SetGreenLED(true)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.objects.Run(ctx, s.MQTT) })
	if err := g.Wait(); err != nil {
		s.Bridge.SetGreenLED(false)
		s.Bridge.BlinkRedLED(time.Millisecond * 100)
		return maskAny(err)
	}
	s.Bridge.SetGreenLED(false)
	return nil
}
