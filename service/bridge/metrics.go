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
	"github.com/gpiokit/SignalWorker/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of line claims
	lineClaimsTotal = metrics.MustRegisterCounter(subSystem,
		"line_claims_total",
		"Total number of GPIO line claims")
	// Total number of line releases
	lineReleasesTotal = metrics.MustRegisterCounter(subSystem,
		"line_releases_total",
		"Total number of GPIO line releases")
	// Total number of edge waits that timed out
	lineWaitTimeoutsTotal = metrics.MustRegisterCounter(subSystem,
		"line_wait_timeouts_total",
		"Total number of edge waits that timed out")
)
