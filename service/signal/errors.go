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

import "github.com/pkg/errors"

var (
	// InvalidParameterError indicates a caller supplied value out of range.
	// Never worth retrying; it is a programming error.
	InvalidParameterError = errors.New("invalid parameter")
	IsInvalidParameter    = isErrorFunc(InvalidParameterError)

	// NoResponseError indicates the device did not answer the handshake
	// within the ack window. Retry after the device minimum sample interval.
	NoResponseError = errors.New("no response")
	IsNoResponse    = isErrorFunc(NoResponseError)

	// FramingError indicates a pulse duration that fits neither bit class.
	// Retry immediately, bounded by the caller.
	FramingError   = errors.New("framing error")
	IsFramingError = isErrorFunc(FramingError)

	// ChecksumError indicates a fully decoded frame failed its integrity
	// check. Retry like framing, but log distinctly; persistent checksum
	// failures point at interference or a failing sensor.
	ChecksumError   = errors.New("checksum mismatch")
	IsChecksumError = isErrorFunc(ChecksumError)

	// LineIOError indicates the GPIO line itself failed.
	// Fatal for the current session; never retried by this package.
	LineIOError   = errors.New("line I/O failed")
	IsLineIOError = isErrorFunc(LineIOError)

	// ErrEdgeTimeout is returned by Line.WaitForEdge when no edge arrives
	// within the given timeout.
	ErrEdgeTimeout = errors.New("edge timeout")
	IsEdgeTimeout  = isErrorFunc(ErrEdgeTimeout)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}
