// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// payflow streams a transaction CSV through the processing pipeline and
// writes the final account report to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/luxfi/payflow/config"
	"github.com/luxfi/payflow/engine"
	"github.com/luxfi/payflow/log"
	"github.com/luxfi/payflow/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := config.BuildFlagSet()
	v, err := config.BuildViper(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "couldn't parse flags: %s\n", err)
		return 2
	}
	if v.GetBool(config.VersionKey) {
		fmt.Println(config.Version)
		return 0
	}
	cfg, err := config.BuildConfig(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := log.Setup(cfg.LogLevel, cfg.LogFile, cfg.LogMaxSize, cfg.LogMaxBackups); err != nil {
		fmt.Fprintf(os.Stderr, "couldn't configure logging: %s\n", err)
		return 2
	}

	positional := fs.Args()
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "usage: payflow [flags] <transactions.csv>")
		return 2
	}

	in, err := os.Open(positional[0])
	if err != nil {
		log.Error("couldn't open input", "path", positional[0], "err", err)
		return 1
	}
	defer in.Close()

	registry := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, registry)
	}

	eng, err := engine.New(engine.Config{
		BlockSize:    cfg.BlockSize,
		Parsers:      cfg.Parsers,
		Shards:       cfg.Shards,
		ChannelDepth: cfg.ChannelDepth,
	}, registry)
	if err != nil {
		log.Error("couldn't build engine", "err", err)
		return 1
	}

	start := time.Now()
	runErr := eng.Run(context.Background(), in)

	// The report covers whatever was applied, even after a mid-stream
	// failure.
	if err := report.Write(os.Stdout, eng.Snapshots()); err != nil {
		log.Error("couldn't write report", "err", err)
		return 1
	}
	if runErr != nil {
		return 1
	}
	log.Info("done", "elapsed", time.Since(start))
	return 0
}

func serveMetrics(addr string, g prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
}
