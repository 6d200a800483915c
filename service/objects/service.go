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
	"github.com/mattn/go-pubsub"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gpiokit/SignalWorker/model"
	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
	"github.com/gpiokit/SignalWorker/service/util"
)

// Service contains the API that is exposed by the object service.
type Service interface {
	// ObjectByID returns the object with given ID.
	// Return false if not found.
	ObjectByID(id string) (Object, bool)
	// Configure is called once to put all objects in the desired state.
	Configure(ctx context.Context) error
	// Run all objects and their request topics until the given context
	// is cancelled.
	Run(ctx context.Context, mqttService mqtt.Service) error
	// SubscribeActuals registers a callback for every sensor reading.
	SubscribeActuals(cb func(ClimateActual)) error
	// Close all objects.
	Close() error
}

type service struct {
	objects           map[string]Object
	configuredObjects map[string]Object
	topicPrefix       string
	actuals           *pubsub.PubSub
	log               zerolog.Logger
}

// NewService instantiates a new Service and Object's for the given
// configuration.
func NewService(config model.LocalConfiguration, br bridge.API, topicPrefix string, log zerolog.Logger) (Service, error) {
	s := &service{
		objects:           make(map[string]Object),
		configuredObjects: make(map[string]Object),
		topicPrefix:       topicPrefix,
		actuals:           pubsub.New(),
		log:               log.With().Str("component", "object-service").Logger(),
	}
	add := func(id, objType string, obj Object, err error) {
		log := s.log.With().Str("id", id).Str("type", objType).Logger()
		if err != nil {
			log.Error().Err(err).Msg("Failed to create object")
			return
		}
		log.Debug().Msg("created object")
		s.objects[id] = obj
	}
	for _, c := range config.Outputs {
		obj, err := newDimmer(c, br, s.log)
		add(c.ID, "dimmer", obj, err)
	}
	for _, c := range config.Sensors {
		obj, err := newClimateSensor(c, br, s.publishActual, s.log)
		add(c.ID, "climate-sensor", obj, err)
	}
	for _, c := range config.Displays {
		obj, err := newMatrixDisplay(c, br, s.log)
		add(c.ID, "matrix-display", obj, err)
	}
	s.log.Debug().Msgf("created %d objects", len(s.objects))
	objectsCreatedTotal.Set(float64(len(s.objects)))
	return s, nil
}

// publishActual fans a sensor reading out to all subscribers.
func (s *service) publishActual(actual ClimateActual) {
	s.actuals.Pub(actual)
}

// SubscribeActuals registers a callback for every sensor reading.
func (s *service) SubscribeActuals(cb func(ClimateActual)) error {
	return maskAny(s.actuals.Sub(cb))
}

// ObjectByID returns the object with given ID.
// Return false if not found or not configured.
func (s *service) ObjectByID(id string) (Object, bool) {
	obj, ok := s.configuredObjects[id]
	return obj, ok
}

// Configure is called once to put all objects in the desired state.
func (s *service) Configure(ctx context.Context) error {
	var ae aerr.AggregateError
	configuredObjects := make(map[string]Object)
	for id, obj := range s.objects {
		if err := obj.Configure(ctx); err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("Failed to configure object")
			ae.Add(maskAny(err))
		} else {
			s.log.Debug().Str("id", id).Msg("configured object")
			configuredObjects[id] = obj
		}
	}
	s.configuredObjects = configuredObjects
	objectsConfiguredTotal.Set(float64(len(configuredObjects)))
	return ae.AsError()
}

// Run all objects and their request topics until the given context
// is cancelled.
func (s *service) Run(ctx context.Context, mqttService mqtt.Service) error {
	if len(s.configuredObjects) == 0 {
		s.log.Warn().Msg("no configured objects, just waiting for context to be cancelled")
		<-ctx.Done()
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	visitedTypes := make(map[*ObjectType]struct{})
	for _, obj := range s.configuredObjects {
		obj := obj
		// Run the object itself
		g.Go(func() error {
			if err := obj.Run(ctx, mqttService, s.topicPrefix); err != nil {
				return maskAny(err)
			}
			return nil
		})

		// Run the message loop for the type of object (if not running already)
		objType := obj.Type()
		if objType == nil {
			continue
		}
		if _, found := visitedTypes[objType]; found {
			// Type already running
			continue
		}
		visitedTypes[objType] = struct{}{}
		g.Go(func() error {
			log := s.log.With().Str("topic", objType.TopicSuffix).Logger()
			return util.UntilCanceled(ctx, log, "message loop "+objType.TopicSuffix, func() error {
				return objType.Run(ctx, mqttService, s.topicPrefix, s)
			})
		})
	}
	return g.Wait()
}

// Close all objects.
func (s *service) Close() error {
	var ae aerr.AggregateError
	for id, obj := range s.objects {
		if err := obj.Close(); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("Failed to close object")
			ae.Add(maskAny(err))
		}
	}
	return ae.AsError()
}
