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

import "time"

// Clock provides monotonic time measurement and timed waits.
// All timing decisions in this package are made against a Clock;
// wall-clock time is only used for labelling results.
type Clock interface {
	// Now returns the time elapsed since an arbitrary fixed origin.
	Now() time.Duration
	// Sleep blocks for at least the given duration.
	Sleep(d time.Duration)
}

// SystemClock is the Clock backed by the Go runtime monotonic clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

var clockOrigin = time.Now()

func (systemClock) Now() time.Duration {
	// time.Since uses the monotonic reading of clockOrigin.
	return time.Since(clockOrigin)
}

func (systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
