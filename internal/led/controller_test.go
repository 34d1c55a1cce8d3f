package led

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLEDs creates <root>/<name>/{trigger,brightness} for each name.
func fakeLEDs(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, attr := range []string{"trigger", "brightness"} {
			if err := os.WriteFile(filepath.Join(dir, attr), nil, 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

func readAttr(t *testing.T, root, name, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name, attr))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNoopController(t *testing.T) {
	ctrl := newNoop(quietLogger())

	if err := ctrl.Set("user", true, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if types := ctrl.Available(); types == nil || len(types) != 0 {
		t.Errorf("Available() = %v, want empty slice", types)
	}
	if patterns := ctrl.Patterns(); patterns == nil || len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty slice", patterns)
	}
}

func TestSysfsController_AvailableSorted(t *testing.T) {
	ctrl := newSysfs(t.TempDir(), map[string]string{"user": "usr_led", "system": "sys_led", "blue": "blue_led"})

	got := ctrl.Available()
	want := []string{"blue", "system", "user"}
	if !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestSysfsController_Set(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		pattern    string
		trigger    string
		brightness string
	}{
		{"solid on", true, PatternSolid, "none", "1"},
		{"blink", true, PatternBlink, "timer", "1"},
		{"heartbeat", true, PatternHeartbeat, "heartbeat", "1"},
		{"off clears trigger", false, PatternHeartbeat, "none", "0"},
		{"on keeps trigger", true, "", "", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeLEDs(t, "usr_led")
			ctrl := newSysfs(root, map[string]string{"user": "usr_led"})

			if err := ctrl.Set("user", tt.enabled, tt.pattern); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			if got := readAttr(t, root, "usr_led", "trigger"); got != tt.trigger {
				t.Errorf("trigger = %q, want %q", got, tt.trigger)
			}
			if got := readAttr(t, root, "usr_led", "brightness"); got != tt.brightness {
				t.Errorf("brightness = %q, want %q", got, tt.brightness)
			}
		})
	}
}

func TestSysfsController_SetErrors(t *testing.T) {
	root := fakeLEDs(t, "usr_led")
	ctrl := newSysfs(root, map[string]string{"user": "usr_led", "system": "sys_led"})

	if err := ctrl.Set("nonexistent", true, ""); err == nil {
		t.Error("unsupported LED type should fail")
	}
	if err := ctrl.Set("system", true, ""); err == nil {
		t.Error("LED missing from sysfs should fail")
	}
	if err := ctrl.Set("user", true, "disco"); err == nil {
		t.Error("unknown pattern should fail")
	}
}
