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

package bridge

import (
	"time"

	"github.com/gpiokit/SignalWorker/service/signal"
)

// API of the bridge, the hardware that connects the worker to the
// GPIO header and the status leds of the board it runs on.
type API interface {
	// Turn Green status led on/off
	SetGreenLED(on bool) error
	// Turn Red status led on/off
	SetRedLED(on bool) error
	// Blink Green status led with given duration between on/off
	BlinkGreenLED(delay time.Duration) error
	// Blink Red status led with given duration between on/off
	BlinkRedLED(delay time.Duration) error

	// Access to local GPIO

	// Returns number of local pins
	PinCount() int
	// Line claims the GPIO line with the given pin number.
	// A pin can only be claimed once; the returned line must be closed
	// to release the pin for future claims.
	Line(pinNumber int) (Line, error)

	Close() error
}

// Line is a signal line tied to a physical pin.
// Closing it releases the pin; a leaked line blocks all future access
// to that pin until process exit.
type Line interface {
	signal.Line
	Close() error
}
