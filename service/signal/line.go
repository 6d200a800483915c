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

// Line is the capability the signal package needs from a single GPIO line.
// Implementations are provided by the bridge (real pins) or by tests
// (simulated pins). A line has exactly one legitimate driver at a time;
// callers must serialize access per physical pin.
type Line interface {
	// SetDirection switches the line between input and output mode.
	SetDirection(direction Direction) error
	// Set drives the line to the given level.
	// Only valid in output mode.
	Set(level bool) error
	// Get returns the current level of the line.
	Get() (bool, error)
	// WaitForEdge blocks until the line changes level or the timeout expires.
	// Returns ErrEdgeTimeout when the timeout expires first.
	WaitForEdge(timeout time.Duration) (Edge, error)
}

// Direction of a GPIO line.
type Direction byte

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// Edge identifies a level transition on a line.
type Edge byte

const (
	EdgeRising Edge = iota
	EdgeFalling
)
