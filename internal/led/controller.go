// Package led drives a board LED as a camera-in-use indicator.
package led

// Patterns accepted by Controller.Set. An empty pattern leaves the
// current trigger alone.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller switches named board LEDs.
type Controller interface {
	// Set turns ledType on or off, optionally with one of the patterns.
	Set(ledType string, enabled bool, pattern string) error

	// Available lists the LED types this board exposes, sorted.
	Available() []string

	// Patterns lists the patterns Set understands.
	Patterns() []string
}
