// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package ktime converts between kernel monotonic timestamps, as returned
// by bpf_ktime_get_ns(), and wall clock time.
package ktime

import (
	"time"

	"github.com/ksentinel/ksentinel/pkg/logger"
	"golang.org/x/sys/unix"
)

// Now returns the current CLOCK_MONOTONIC time in nanoseconds, or 0 when
// the clock can not be read.
func Now() uint64 {
	d, err := Monotonic()
	if err != nil {
		return 0
	}
	return uint64(d)
}

// ToTime converts a monotonic ktime to wall clock time. It falls back to the
// current time when the clock can not be read.
func ToTime(ktime uint64) time.Time {
	return ToTimeOpt(ktime, true)
}

func ToTimeOpt(ktime uint64, monotonic bool) time.Time {
	decodedTime, err := DecodeKtime(int64(ktime), monotonic)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("ktime", ktime).Warn("Failed to decode ktime")
		return time.Now()
	}
	return decodedTime
}

func DiffKtime(start, end uint64) time.Duration {
	return time.Duration(int64(end - start))
}

func NanoTimeSince(ktime int64) (time.Duration, error) {
	clk := int32(unix.CLOCK_MONOTONIC)
	currentTime := unix.Timespec{}
	if err := unix.ClockGettime(clk, &currentTime); err != nil {
		return 0, err
	}
	diff := currentTime.Nano() - ktime
	return time.Duration(diff), nil
}

func Monotonic() (time.Duration, error) {
	clk := int32(unix.CLOCK_MONOTONIC)
	currentTime := unix.Timespec{}
	if err := unix.ClockGettime(clk, &currentTime); err != nil {
		return 0, err
	}
	return time.Duration(currentTime.Nano()), nil
}

func DecodeKtime(ktime int64, monotonic bool) (time.Time, error) {
	var clk int32
	if monotonic {
		clk = int32(unix.CLOCK_MONOTONIC)
	} else {
		clk = int32(unix.CLOCK_BOOTTIME)
	}
	currentTime := unix.Timespec{}
	if err := unix.ClockGettime(clk, &currentTime); err != nil {
		return time.Time{}, err
	}
	diff := ktime - currentTime.Nano()
	t := time.Now().Add(time.Duration(diff))
	return t, nil
}
