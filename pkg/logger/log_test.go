// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestPopulateLogOpts(t *testing.T) {
	o := LogOptions{}
	PopulateLogOpts(o, "debug", "JSON")
	assert.Equal(t, "debug", o[levelOpt])
	assert.Equal(t, "json", o[formatOpt])
	assert.Equal(t, logrus.DebugLevel, o.getLogLevel())
	assert.Equal(t, logFormatJSON, o.getLogFormat())

	o = LogOptions{}
	PopulateLogOpts(o, "loud", "xml")
	assert.Empty(t, o)
	assert.Equal(t, defaultLogLevel, o.getLogLevel())
	assert.Equal(t, defaultLogFormat, o.getLogFormat())
}

func TestSetupLoggingDebugOverrides(t *testing.T) {
	defer setLogLevel(defaultLogLevel)

	o := LogOptions{}
	PopulateLogOpts(o, "warn", "")
	SetupLogging(o, false)
	assert.Equal(t, logrus.WarnLevel, GetLogLevel())

	SetupLogging(o, true)
	assert.Equal(t, logrus.DebugLevel, GetLogLevel())
}
