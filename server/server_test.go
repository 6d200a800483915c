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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/service/objects"
)

type fakeAPI struct {
	actuals []objects.ClimateActual
}

func (a *fakeAPI) Actuals() []objects.ClimateActual {
	return a.actuals
}

func testServer(api API) *server {
	s, _ := NewServer(Config{Host: "127.0.0.1", Port: 0}, api, zerolog.Nop())
	return s.(*server)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(&fakeAPI{})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	if err := s.handleHealth(c); err != nil {
		t.Fatalf("handleHealth failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestHandleActuals(t *testing.T) {
	api := &fakeAPI{
		actuals: []objects.ClimateActual{
			{ID: "s1", Humidity: 52.5, Temperature: 21.0, Time: time.Now()},
		},
	}
	s := testServer(api)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/v1/actuals", nil), rec)
	if err := s.handleActuals(c); err != nil {
		t.Fatalf("handleActuals failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var resp actualsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Actuals) != 1 || resp.Actuals[0].ID != "s1" {
		t.Errorf("Unexpected actuals %+v", resp.Actuals)
	}
	if resp.Uptime == "" {
		t.Error("Expected a non-empty uptime")
	}
}

func TestHandleActualsEmpty(t *testing.T) {
	s := testServer(&fakeAPI{})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/v1/actuals", nil), rec)
	if err := s.handleActuals(c); err != nil {
		t.Fatalf("handleActuals failed: %v", err)
	}
	var resp actualsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Actuals == nil || len(resp.Actuals) != 0 {
		t.Errorf("Expected empty actuals list, got %+v", resp.Actuals)
	}
}
