// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package encoder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/api/eventapi"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/ratelimit"
)

const rfc3339Nano = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrInvalidEvent     = errors.New("invalid event")
	ErrUnknownEventType = errors.New("unknown event type")
)

// EventEncoder is an interface for encoding eventapi.Event.
type EventEncoder interface {
	Encode(v interface{}) error
}

// ColorMode defines color mode flags for compact output.
type ColorMode string

const (
	Always ColorMode = "always" // always enable colored output.
	Never  ColorMode = "never"  // disable colored output.
	Auto   ColorMode = "auto"   // automatically enable / disable colored output based on terminal settings.
)

// CompactEncoder encodes eventapi.Event in a short format with emojis and colors.
type CompactEncoder struct {
	Writer     io.Writer
	Colorer    *Colorer
	Timestamps bool
	Host       string
}

// NewCompactEncoder initializes and returns a pointer to CompactEncoder.
func NewCompactEncoder(w io.Writer, colorMode ColorMode, timestamps bool, host string) *CompactEncoder {
	return &CompactEncoder{
		Writer:     w,
		Colorer:    NewColorer(colorMode),
		Timestamps: timestamps,
		Host:       host,
	}
}

// Encode implements EventEncoder.Encode. Rate limit reports are printed as
// well so that the compact output can be shared with the rate limiter.
func (p *CompactEncoder) Encode(v interface{}) error {
	var (
		str string
		err error
	)
	switch ev := v.(type) {
	case *eventapi.Event:
		logger.GetLogger().WithField("event", ev.Type).Debug("Processing event")
		str, err = p.EventToString(ev)
		if err == nil && p.Timestamps {
			str = fmt.Sprintf("%s %s", ev.Time.UTC().Format(rfc3339Nano), str)
		}
	case *ratelimit.InfoEvent:
		str = p.Colorer.Red.Sprintf("🚦 %-7s %d events dropped", "ratelimit", ev.RateLimitInfo.NumberOfDroppedEvents)
		if p.Timestamps {
			str = fmt.Sprintf("%s %s", ev.Time.UTC().Format(rfc3339Nano), str)
		}
	default:
		return ErrInvalidEvent
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Writer, str)
	return err
}

const (
	trailerPad = 120
)

// TrailerPrinter right aligns trailer after str.
func TrailerPrinter(str string, trailer string) string {
	if len(trailer) == 0 {
		return str
	}
	padding := 0
	if len(str) < trailerPad {
		padding = trailerPad - len(str)
	}
	return fmt.Sprintf("%s %*s", str, padding, trailer)
}

func (p *CompactEncoder) EventToString(ev *eventapi.Event) (string, error) {
	processInfo, trailer := p.Colorer.ProcessInfo(p.Host, ev)
	switch data := ev.Data.(type) {
	case *eventapi.Connect:
		event := p.Colorer.Blue.Sprintf("🔌 %-7s", "connect")
		sock := p.Colorer.Cyan.Sprintf("%s %s:%d -> %s:%d", data.Family, data.Sip, data.Sport, data.Dip, data.Dport)
		status := ""
		if ev.Retval < 0 {
			status = " " + p.Colorer.Red.Sprint(ev.Retval)
		}
		return TrailerPrinter(fmt.Sprintf("%s %s %s%s", event, processInfo, sock, status), trailer), nil
	case *eventapi.SocketBind:
		event := p.Colorer.Blue.Sprintf("📌 %-7s", "bind")
		sock := p.Colorer.Cyan.Sprintf("%s %s %s:%d", data.Family, data.Protocol, data.LocalAddr, data.LocalPort)
		return TrailerPrinter(fmt.Sprintf("%s %s %s", event, processInfo, sock), trailer), nil
	case *eventapi.DNS:
		event := p.Colorer.Blue.Sprintf("🔎 %-7s", "dns")
		query := p.Colorer.Cyan.Sprintf("%s %s", data.Qtype, data.Query)
		rcode := p.Colorer.Green.Sprint(data.Rcode)
		if data.Rcode != "NOERROR" {
			rcode = p.Colorer.Red.Sprint(data.Rcode)
		}
		return TrailerPrinter(fmt.Sprintf("%s %s %s %s", event, processInfo, query, rcode), trailer), nil
	case *eventapi.DoInitModule:
		event := p.Colorer.Red.Sprintf("🧩 %-7s", "module")
		mod := p.Colorer.Yellow.Sprint(data.Modname)
		tree := p.Colorer.Cyan.Sprint(data.Pidtree)
		return TrailerPrinter(fmt.Sprintf("%s %s %s %s", event, processInfo, mod, tree), trailer), nil
	case *eventapi.KernelReadFile:
		event := p.Colorer.Blue.Sprintf("📚 %-7s", "kread")
		file := p.Colorer.Cyan.Sprint(data.Filename)
		return TrailerPrinter(fmt.Sprintf("%s %s %s %s", event, processInfo, file, data.Typename), trailer), nil
	case *eventapi.CallUsermodehelper:
		event := p.Colorer.Red.Sprintf("🔧 %-7s", "umh")
		args := p.Colorer.Cyan.Sprint(strings.Join(data.Argv, " "))
		return TrailerPrinter(fmt.Sprintf("%s %s %s", event, processInfo, args), trailer), nil
	case *eventapi.SyscallTable:
		event := p.Colorer.Red.Sprintf("🛡 %-7s", "sct")
		return fmt.Sprintf("%s %s %d handlers", event, p.Colorer.Green.Sprint(p.Host), len(data.SyscallAddrs)), nil
	}
	return "", ErrUnknownEventType
}
