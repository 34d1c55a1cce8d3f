package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// board maps a device tree model substring to its LED names.
type board struct {
	model string
	leds  map[string]string
}

var boards = []board{
	{"NanoPC-T6", map[string]string{"user": "usr_led", "system": "sys_led"}},
	{"Orange Pi", map[string]string{"blue": "blue_led", "green": "green_led"}},
	{"Raspberry Pi", map[string]string{"act": "ACT"}},
}

// New returns a sysfs controller for a recognised board and a no-op
// controller everywhere else.
func New(logger *slog.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger *slog.Logger) Controller {
	if logger == nil {
		logger = slog.Default()
	}
	for _, b := range boards {
		if strings.Contains(model, b.model) {
			logger.Info("Using sysfs LED controller", "board", b.model)
			return newSysfs(root, b.leds)
		}
	}
	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model, or "unknown" when there is none.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}

// indicatorPreference orders LED types by how suitable they are as a
// camera indicator.
var indicatorPreference = []string{"user", "blue", "act", "green", "system"}

// DefaultIndicator picks the LED used to signal camera activity. It returns
// "" when the controller has no LEDs.
func DefaultIndicator(ctrl Controller) string {
	available := ctrl.Available()
	for _, want := range indicatorPreference {
		for _, have := range available {
			if have == want {
				return have
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
