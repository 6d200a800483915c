// Copyright 2024 The GPIOKit authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package objects

import (
	"github.com/gpiokit/SignalWorker/pkg/metrics"
)

const (
	subSystem = "objects"
)

var (
	// Number of created objects
	objectsCreatedTotal = metrics.MustRegisterGauge(subSystem,
		"objects_created_total",
		"Number of created objects")

	// Number of configured objects
	objectsConfiguredTotal = metrics.MustRegisterGauge(subSystem,
		"objects_configured_total",
		"Number of configured objects")

	// Dimmer metrics
	dimmerRequestsTotal = metrics.MustRegisterCounterVec(subSystem,
		"dimmer_requests_total",
		"Number of dimmer requests",
		"id")
	dimmerRequestsDroppedTotal = metrics.MustRegisterCounterVec(subSystem,
		"dimmer_requests_dropped_total",
		"Number of dimmer requests dropped because the pattern queue was full",
		"id")
	dimmerDutyGauge = metrics.MustRegisterGaugeVec(subSystem,
		"dimmer_duty_percent",
		"Duty cycle (percent) most recently applied to a dimmer",
		"id")

	// Climate sensor metrics
	climateHumidityGauge = metrics.MustRegisterGaugeVec(subSystem,
		"climate_humidity_percent",
		"Last decoded relative humidity per sensor",
		"id")
	climateTemperatureGauge = metrics.MustRegisterGaugeVec(subSystem,
		"climate_temperature_celsius",
		"Last decoded temperature per sensor",
		"id")
	climateReadErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"climate_read_errors_total",
		"Number of failed sensor reads per sensor and error kind",
		"id", "kind")

	// Display metrics
	displayRequestsTotal = metrics.MustRegisterCounterVec(subSystem,
		"display_requests_total",
		"Number of display requests",
		"id")
)
