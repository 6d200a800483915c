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

package main

import (
	"context"
	"fmt"
	"os"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gpiokit/SignalWorker/server"
	"github.com/gpiokit/SignalWorker/service"
	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/mqtt"
)

const (
	projectName       = "GPIOKit Signal Worker"
	defaultServerPort = 7201
	defaultMQTTPort   = 1883
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var bridgeType string
	var configPath string
	var topicPrefix string
	var serverHost string
	var serverPort int
	var mqttHost string
	var mqttPort int
	var mqttUserName string
	var mqttPassword string

	pflag.StringVarP(&levelFlag, "level", "l", "debug", "Set log level")
	pflag.StringVarP(&bridgeType, "bridge", "b", "rpi", "Type of bridge to use (rpi|virtual)")
	pflag.StringVarP(&configPath, "config", "c", "signalworker.json", "Path of the local configuration file")
	pflag.StringVar(&topicPrefix, "topic-prefix", "", "Prefix for all MQTT topics (defaults to signalworker/<host-id>)")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP server will listen on")
	pflag.IntVar(&serverPort, "port", defaultServerPort, "Port the HTTP server will listen on")
	pflag.StringVar(&mqttHost, "mqtt-host", "localhost", "Host address of the MQTT broker")
	pflag.IntVar(&mqttPort, "mqtt-port", defaultMQTTPort, "Port of the MQTT broker")
	pflag.StringVar(&mqttUserName, "mqtt-username", "", "Username for the MQTT broker")
	pflag.StringVar(&mqttPassword, "mqtt-password", "", "Password for the MQTT broker")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(levelFlag); err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	} else {
		logger = logger.Level(level)
	}

	var br bridge.API
	var err error
	switch bridgeType {
	case "rpi":
		br, err = bridge.NewRaspberryPiBridge()
		if err != nil {
			Exitf("Failed to initialize Raspberry Pi bridge: %v\n", err)
		}
	case "virtual":
		br, err = bridge.NewVirtualBridge(logger)
		if err != nil {
			Exitf("Failed to initialize virtual bridge: %v\n", err)
		}
	default:
		Exitf("Unknown bridge type '%s' (rpi|virtual)\n", bridgeType)
	}

	mqttSvc, err := mqtt.NewService(mqtt.Config{
		Host:     mqttHost,
		Port:     mqttPort,
		UserName: mqttUserName,
		Password: mqttPassword,
		ClientID: fmt.Sprintf("signalworker-%d", os.Getpid()),
	}, logger)
	if err != nil {
		Exitf("Failed to initialize MQTT service: %v\n", err)
	}

	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		ConfigPath:     configPath,
		TopicPrefix:    topicPrefix,
	}, service.Dependencies{
		Log:    logger,
		Bridge: br,
		MQTT:   mqttSvc,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	httpServer, err := server.NewServer(server.Config{
		Host: serverHost,
		Port: serverPort,
	}, svc, logger)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return mqttSvc.Close()
	})
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %#v", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
