// Package display decides which single mode owns the VFD and pushes its frame to the device.
package display

import (
	"fmt"
)

// Layer is one information source competing for the display.
// Scheduler calls Layer methods while holding its lock,
// so implementations must not call back into Scheduler synchronously from them.
type Layer interface {
	fmt.Stringer
	OnSettingsChanged()
	Enable(bool)
	Update()
	IsAlwaysOnTop() bool
	DataBuffer() []byte
	StartShowTimer()
	StartHideTimer()
}

// Sink is the device endpoint. Push(nil) reverts display to built-in clock.
// Sink absorbs I/O errors itself.
type Sink interface {
	Push(b []byte)
}

// PlaybackObserver receives player lifecycle events.
type PlaybackObserver interface {
	PlaybackStarted()
	PlaybackStopped()
	PlaybackEnded()
}

// Stacker is the part of Scheduler visible to layers.
type Stacker interface {
	AddLayer(Layer)
	RemoveLayer(Layer)
}
