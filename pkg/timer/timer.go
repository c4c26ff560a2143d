// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package timer

import (
	"errors"
	"sync"
	"time"

	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/sirupsen/logrus"
)

var ErrInvalidInterval = errors.New("invalid interval specified (<= 0)")

// PeriodicTimer runs a worker every interval until stopped. Restarting it
// with a different interval replaces the running worker.
type PeriodicTimer struct {
	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	wg       sync.WaitGroup
	dowork   func()
	verbose  bool
	interval time.Duration
	log      logrus.FieldLogger
}

func NewPeriodicTimer(name string, timerWorker func(), verbose bool) *PeriodicTimer {
	return &PeriodicTimer{
		dowork:  timerWorker,
		verbose: verbose,
		log:     logger.WithSubsys(name),
	}
}

func (t *PeriodicTimer) Start(newInterval time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if newInterval <= 0 {
		return ErrInvalidInterval
	}

	if t.running {
		if newInterval == t.interval {
			if t.verbose {
				t.log.Warn("start: already running")
			}
			return nil
		}
		t.halt()
	}

	t.interval = newInterval
	t.running = true
	t.stop = make(chan struct{})
	t.wg.Add(1)
	go t.worker(t.interval, t.stop)
	return nil
}

func (t *PeriodicTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		if t.verbose {
			t.log.Warn("stop: not started")
		}
		return
	}
	t.halt()
	t.running = false

	if t.verbose {
		t.log.Info("stopped")
	}
}

// Running returns the current interval, zero when stopped.
func (t *PeriodicTimer) Running() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return t.interval
}

func (t *PeriodicTimer) halt() {
	close(t.stop)
	t.wg.Wait()
}

func (t *PeriodicTimer) worker(interval time.Duration, stop <-chan struct{}) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if t.verbose {
		t.log.WithField("interval", interval).Info("started")
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.dowork()
		}
	}
}
