// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/ksentinel/ksentinel/pkg/encoder"
	"github.com/ksentinel/ksentinel/pkg/exporter"
	"github.com/ksentinel/ksentinel/pkg/option"

	"github.com/cilium/lumberjack/v2"
)

// stdoutWriter keeps stdout open when the exporter stops.
type stdoutWriter struct {
	io.Writer
}

func (stdoutWriter) Close() error {
	return nil
}

func newExportWriter(ctx context.Context) io.WriteCloser {
	if option.Config.ExportFilename == "" {
		return stdoutWriter{os.Stdout}
	}
	writer := &lumberjack.Logger{
		Filename:   option.Config.ExportFilename,
		MaxSize:    option.Config.ExportFileMaxSizeMB,
		MaxBackups: option.Config.ExportFileMaxBackups,
		Compress:   option.Config.ExportFileCompress,
	}
	if interval := option.Config.ExportFileRotationInterval; interval != 0 {
		log.WithField("duration", interval).Info("Periodically rotating JSON export files")
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if rotationErr := writer.Rotate(); rotationErr != nil {
						log.WithError(rotationErr).
							WithField("filename", option.Config.ExportFilename).
							Warn("Failed to rotate JSON export file")
					}
				}
			}
		}()
	}
	return writer
}

// newExportEncoder returns the encoder shared by the exporter and the rate
// limit reports.
func newExportEncoder(w io.Writer) *exporter.LockedEncoder {
	w = exporter.NewExportedBytesTotalWriter(w)
	if option.Config.Output == option.OutputCompact {
		host, err := os.Hostname()
		if err != nil {
			log.WithError(err).Warn("Failed to read hostname")
		}
		return exporter.NewLockedEncoder(encoder.NewCompactEncoder(w, encoder.ColorMode(option.Config.Color), true, host))
	}
	return exporter.NewLockedEncoder(json.NewEncoder(w))
}
