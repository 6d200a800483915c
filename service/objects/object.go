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

	"github.com/pkg/errors"

	"github.com/gpiokit/SignalWorker/service/mqtt"
)

// Object is a single configured peripheral.
type Object interface {
	// Return the type of this object, or nil for publish-only objects.
	Type() *ObjectType
	// Configure is called once to put the object in the desired state.
	Configure(ctx context.Context) error
	// Run the object until the given context is cancelled.
	Run(ctx context.Context, mqttService mqtt.Service, topicPrefix string) error
	// Close brings the object back to a safe state and releases its lines.
	Close() error
}

// ObjectType contains the API supported by a specific type of object.
// There is a single instance of a specific ObjectType that is used by
// all Object instances of that type.
type ObjectType struct {
	// Return the suffix of the topic name to listen on for messages
	TopicSuffix string
	// NextMessage waits for the next message on given subscription
	// and processes it.
	NextMessage func(ctx context.Context, subscription mqtt.Subscription, service Service) error
}

// Run subscribes to the intended topic and processes incoming messages
// until the given context is cancelled.
func (t *ObjectType) Run(ctx context.Context, mqttService mqtt.Service, topicPrefix string, service Service) error {
	topic := path.Join(topicPrefix, t.TopicSuffix)
	subscription, err := mqttService.Subscribe(ctx, topic, mqtt.QosAsLeastOnce)
	if err != nil {
		return maskAny(err)
	}
	defer subscription.Close()

	for {
		// Wait for next message and process it
		if err := t.NextMessage(ctx, subscription, service); err != nil {
			if errors.Cause(err) == context.Canceled {
				return nil
			}
			return maskAny(err)
		}
	}
}
