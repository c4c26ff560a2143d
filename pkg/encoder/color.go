// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package encoder

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/ksentinel/ksentinel/pkg/api/eventapi"
)

type Colorer struct {
	Colors  []*color.Color
	Red     *color.Color
	Green   *color.Color
	Blue    *color.Color
	Cyan    *color.Color
	Magenta *color.Color
	Yellow  *color.Color
}

func NewColorer(when ColorMode) *Colorer {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	blue := color.New(color.FgBlue)
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)
	yellow := color.New(color.FgYellow)

	c := &Colorer{
		Red:     red,
		Green:   green,
		Blue:    blue,
		Cyan:    cyan,
		Magenta: magenta,
		Yellow:  yellow,
	}

	c.Colors = []*color.Color{
		red, green, blue,
		cyan, magenta, yellow,
	}
	switch when {
	case Always:
		c.enable()
	case Never:
		c.disable()
	case Auto:
		c.auto()
	}
	return c
}

func (c *Colorer) auto() {
	for _, v := range c.Colors {
		if color.NoColor { // NoColor is global and set dynamically
			v.DisableColor()
		} else {
			v.EnableColor()
		}
	}
}

func (c *Colorer) enable() {
	for _, v := range c.Colors {
		v.EnableColor()
	}
}

func (c *Colorer) disable() {
	for _, v := range c.Colors {
		v.DisableColor()
	}
}

func privileged(ev *eventapi.Event) string {
	if ev.Uid == 0 {
		return "🛑 root"
	}
	return ""
}

// ProcessInfo renders the host and the process of ev, plus a trailer
// flagging privileged tasks.
func (c *Colorer) ProcessInfo(host string, ev *eventapi.Event) (string, string) {
	source := c.Green.Sprint(host)
	binary := ev.Exe
	if binary == "" {
		binary = ev.Comm
	}
	proc := c.Magenta.Sprintf("%s[%d]", binary, ev.Pid)
	trailer := c.Magenta.Sprint(privileged(ev))
	return fmt.Sprintf("%s %s", source, proc), trailer
}
