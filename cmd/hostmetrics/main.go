// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Command hostmetrics exposes host and process resource metrics on a
// Prometheus scrape endpoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sys/unix"

	hostmetrics "go.opentelemetry.io/host-metrics"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() exitCode {
	args, err := parseArgs()
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if args.version {
		fmt.Printf("%s\n", hostmetrics.Version())
		return exitSuccess
	}

	if args.verboseMode {
		log.SetLevel(log.DebugLevel)
		args.dump()
	}

	// Context to drive the main goroutine until a termination signal.
	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM)
	defer mainCancel()

	log.Infof("Starting host metrics agent %s", hostmetrics.Version())

	// The exporter doubles as the reader of the meter provider, collection
	// runs whenever the endpoint is scraped.
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return failure("Failed to create Prometheus exporter: %v", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Errorf("Failed to shut down meter provider: %v", err)
		}
	}()

	hm := hostmetrics.New(
		hostmetrics.WithMeterProvider(provider),
		hostmetrics.WithFreshness(args.freshness))
	if err := hm.Start(); err != nil {
		return failure("Failed to start host metrics: %v", err)
	}
	defer func() {
		if err := hm.Stop(); err != nil {
			log.Errorf("Failed to stop host metrics: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry: registry,
	}))
	server := &http.Server{
		Addr:              args.listenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.Infof("Serving metrics on http://%s/metrics", args.listenAddress)

	select {
	case <-mainCtx.Done():
	case err := <-serveErr:
		return failure("Metrics endpoint failed: %v", err)
	}

	log.Info("Stop processing ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shut down metrics endpoint: %v", err)
	}

	log.Info("Exiting ...")
	return exitSuccess
}

func parseError(msg string, args ...interface{}) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...interface{}) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
