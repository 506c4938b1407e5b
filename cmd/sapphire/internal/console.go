package internal

import (
	"github.com/gookit/color"

	"github.com/sapphirepm/sapphire/internal/events"
)

// consoleSink renders build events for an interactive terminal: step starts
// as "==>" headers, warnings in color, debug only under --verbose.
type consoleSink struct{}

func (consoleSink) Emit(e events.Event) {
	switch e.Level {
	case events.Info:
		color.Info.Printf("==> %s\n", e.String())
	case events.Warn:
		color.Warn.Printf("warning: %s\n", e.String())
	case events.Error:
		color.Danger.Println(e.String())
	default:
		if verbose {
			color.Debug.Println(e.String())
		}
	}
}
