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
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/service/objects"
)

type Server interface {
	// Run the HTTP server until the given context is cancelled.
	Run(ctx context.Context) error
}

// API of the worker service the server exposes.
type API interface {
	// Actuals returns the most recent reading of every climate sensor.
	Actuals() []objects.ClimateActual
}

type Config struct {
	Host string
	Port int
}

type server struct {
	Config
	api API
	log zerolog.Logger

	startedAt time.Time
}

// NewServer configures a new Server.
func NewServer(cfg Config, api API, log zerolog.Logger) (Server, error) {
	return &server{
		Config:    cfg,
		api:       api,
		log:       log.With().Str("component", "server").Logger(),
		startedAt: time.Now(),
	}, nil
}

// Run the HTTP server until the given context is cancelled.
func (s *server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return maskAny(err)
	}

	router := echo.New()
	router.HideBanner = true
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	router.GET("/healthz", s.handleHealth)
	router.GET("/v1/actuals", s.handleActuals)
	httpSrv := http.Server{
		Handler: router,
	}

	s.log.Debug().Str("address", addr).Msg("Serving HTTP")
	go func() {
		if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("failed to serve HTTP server")
		}
	}()

	<-ctx.Done()
	s.log.Info().Msg("Closing HTTP server")
	return maskAny(httpSrv.Shutdown(context.Background()))
}

func (s *server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK\n")
}

// actualsResponse is the payload of GET /v1/actuals.
type actualsResponse struct {
	Uptime  string                  `json:"uptime"`
	Actuals []objects.ClimateActual `json:"actuals"`
}

func (s *server) handleActuals(c echo.Context) error {
	actuals := s.api.Actuals()
	if actuals == nil {
		actuals = []objects.ClimateActual{}
	}
	return c.JSON(http.StatusOK, actualsResponse{
		Uptime:  humanize.Time(s.startedAt),
		Actuals: actuals,
	})
}
