package led

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

const sysfsLEDPath = "/sys/class/leds"

// triggers maps a pattern to the kernel LED trigger that produces it.
// Solid uses the "none" trigger so brightness stays under our control.
var triggers = map[string]string{
	PatternSolid:     "none",
	PatternBlink:     "timer",
	PatternHeartbeat: "heartbeat",
}

// sysfs drives LEDs through /sys/class/leds/<name>/{trigger,brightness}.
type sysfs struct {
	root string
	leds map[string]string // LED type -> sysfs directory name
}

func newSysfs(root string, leds map[string]string) *sysfs {
	if root == "" {
		root = sysfsLEDPath
	}
	return &sysfs{root: root, leds: leds}
}

func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	name, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}
	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("LED %q not found at %s", ledType, dir)
	}

	if !enabled {
		// A running timer or heartbeat would keep flashing at brightness 0.
		pattern = PatternSolid
	}
	if pattern != "" {
		trigger, ok := triggers[pattern]
		if !ok {
			return fmt.Errorf("unknown LED pattern %q", pattern)
		}
		if err := writeAttr(dir, "trigger", trigger); err != nil {
			return err
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	return writeAttr(dir, "brightness", brightness)
}

func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	slices.Sort(types)
	return types
}

func (s *sysfs) Patterns() []string {
	return []string{PatternSolid, PatternBlink, PatternHeartbeat}
}

func writeAttr(dir, attr, value string) error {
	if err := os.WriteFile(filepath.Join(dir, attr), []byte(value), 0o644); err != nil {
		return fmt.Errorf("set LED %s: %w", attr, err)
	}
	return nil
}
