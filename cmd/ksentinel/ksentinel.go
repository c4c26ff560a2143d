// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ksentinel/ksentinel/pkg/defaults"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/exporter"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/metrics"
	"github.com/ksentinel/ksentinel/pkg/option"
	"github.com/ksentinel/ksentinel/pkg/pidfile"
	"github.com/ksentinel/ksentinel/pkg/ratelimit"
	"github.com/ksentinel/ksentinel/pkg/reader/proc"
	"github.com/ksentinel/ksentinel/pkg/sensors"
	"github.com/ksentinel/ksentinel/pkg/timer"
	"github.com/ksentinel/ksentinel/pkg/version"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const statsInterval = time.Minute

func startMetricsServer() {
	if option.Config.MetricsServer == "" {
		return
	}
	go func() {
		if err := metrics.EnableMetrics(option.Config.MetricsServer); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// pipeline is the output half of the sensor: submitter, rate limiter and
// exporter.
type pipeline struct {
	submitter *event.Submitter
	exporter  *exporter.Exporter
}

func newPipeline(ctx context.Context) (*pipeline, error) {
	writer := newExportWriter(ctx)
	enc := newExportEncoder(writer)
	limiter := ratelimit.NewRateLimiter(ctx, time.Minute, option.Config.ExportRateLimit, enc)
	p := &pipeline{
		submitter: event.NewSubmitter(option.Config.EventQueueSize, limiter),
	}
	p.exporter = exporter.NewExporter(ctx, p.submitter.Events(), enc, writer)
	if err := p.exporter.Start(); err != nil {
		return nil, fmt.Errorf("error starting exporter: %w", err)
	}
	return p, nil
}

func reportStats(p *pipeline, c *components) func() {
	return func() {
		submitted, dropped := p.submitter.Stats()
		exported, failed := p.exporter.Stats()
		scans, aborts := c.scanner.Stats()
		log.WithField("submitted", submitted).
			WithField("dropped", dropped).
			WithField("exported", exported).
			WithField("export_failed", failed).
			WithField("scans", scans).
			WithField("scan_aborts", aborts).
			WithField("idt_sweeps", c.scanner.Sweeps()).
			WithField("idt_unresolved", c.scanner.Residency().Unresolved()).
			Info("Sensor statistics")
	}
}

func ksentinelExecute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.WithField("version", version.Version).Info("Starting ksentinel")
	log.WithField("config", viper.AllSettings()).Info("config settings")

	if err := os.MkdirAll(filepath.Dir(defaults.DefaultPidFile), 0o755); err != nil {
		return err
	}
	pf, err := pidfile.New(defaults.DefaultPidFile, option.Config.ProcFS)
	if err != nil {
		return err
	}
	if pid, err := pf.Create(); err != nil {
		if errors.Is(err, pidfile.ErrPidIsStillAlive) {
			return fmt.Errorf("ksentinel already running with pid %d", pid)
		}
		return err
	}
	defer pf.Delete()

	startMetricsServer()

	kcore, err := kernel.OpenKcore(filepath.Join(option.Config.ProcFS, "kcore"))
	if err != nil {
		return fmt.Errorf("opening kernel memory: %w", err)
	}
	defer kcore.Close()

	self, err := proc.Self(option.Config.ProcFS)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	c, err := newComponents(kcore, p.submitter, self)
	if err != nil {
		return err
	}
	defer c.Close()
	log.WithField("hooks", sensors.Sections()).Info("Hook handlers registered")

	// the scanner reads the maps, so it has to stop before they are closed
	var g errgroup.Group
	g.Go(func() error {
		c.scanner.Run(ctx, option.Config.ScanInterval)
		return nil
	})

	stats := timer.NewPeriodicTimer("stats", reportStats(p, c), false)
	if err := stats.Start(statsInterval); err != nil {
		return err
	}
	defer stats.Stop()

	select {
	case s := <-sigs:
		log.WithField("signal", s).Info("Received signal, shutting down")
	case <-p.exporter.Done():
		log.Warn("Exporter stopped, shutting down")
	}
	cancel()
	<-p.exporter.Done()
	return g.Wait()
}
