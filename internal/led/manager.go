package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/docscan/internal/events"
)

// Manager mirrors the camera session state on an indicator LED:
// solid while streaming, blinking while starting and off otherwise.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	ledType     string
	unsubscribe func()
	logger      *slog.Logger

	mu    sync.Mutex
	state string
}

// NewManager creates a manager driving ledType. An empty ledType selects
// DefaultIndicator(controller).
func NewManager(controller Controller, eventBus *events.Bus, ledType string, logger *slog.Logger) *Manager {
	if ledType == "" {
		ledType = DefaultIndicator(controller)
	}
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		ledType:    ledType,
		logger:     logger,
	}
}

// Start begins listening for session state changes.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.SessionStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started", "led", m.ledType)
}

// Stop unsubscribes and turns the indicator off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.apply("idle")
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(event events.SessionStateChangedEvent) {
	m.logger.Debug("Camera session state changed", "state", event.State, "device", event.DeviceID)
	m.apply(event.State)
}

// apply sets the LED for state, skipping repeats.
func (m *Manager) apply(state string) {
	if m.ledType == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == state {
		return
	}
	m.state = state

	var err error
	switch state {
	case "active":
		err = m.controller.Set(m.ledType, true, PatternSolid)
	case "starting":
		err = m.controller.Set(m.ledType, true, PatternBlink)
	default:
		err = m.controller.Set(m.ledType, false, "")
	}
	if err != nil {
		m.logger.Warn("Failed to set camera LED", "led", m.ledType, "state", state, "error", err)
	}
}

// GetController returns the underlying LED controller for direct API access
func (m *Manager) GetController() Controller {
	return m.controller
}
