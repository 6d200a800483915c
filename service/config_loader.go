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
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/gpiokit/SignalWorker/model"
)

var maskAny = errors.WithStack

// loadConfig reads and validates the local configuration file.
func loadConfig(path string) (model.LocalConfiguration, error) {
	var result model.LocalConfiguration
	content, err := os.ReadFile(path)
	if err != nil {
		return result, maskAny(err)
	}
	if err := json.Unmarshal(content, &result); err != nil {
		return result, maskAny(err)
	}
	if err := result.Validate(); err != nil {
		return result, maskAny(err)
	}
	return result, nil
}
