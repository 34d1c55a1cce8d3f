package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AlexxIT/go2rtc/pkg/core"
	"github.com/pion/webrtc/v4"
	"github.com/smazurov/docscan/internal/metrics"
)

var (
	// ErrInvalidOffer means the browser's SDP could not be applied.
	ErrInvalidOffer = errors.New("invalid SDP offer")
	// ErrEncoderUnavailable means the live encoder could not be started.
	ErrEncoderUnavailable = errors.New("live encoder unavailable")
)

// Config holds configuration for viewer connections.
type Config struct {
	// ICEServers for STUN/TURN (empty for LAN-only)
	ICEServers []webrtc.ICEServer
}

// Manager owns the viewers' peer connections.
type Manager struct {
	hub    *Hub
	api    *webrtc.API
	config Config
	logger *slog.Logger

	mu    sync.RWMutex
	peers map[string]*webrtc.PeerConnection
}

// NewManager creates a manager serving the hub's track.
func NewManager(hub *Hub, config Config, logger *slog.Logger) (*Manager, error) {
	api, err := NewWebRTCAPI()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		hub:    hub,
		api:    api,
		config: config,
		logger: logger,
		peers:  make(map[string]*webrtc.PeerConnection),
	}, nil
}

// CreateViewer answers a browser's SDP offer with a connection receiving the
// live view. The answer carries all ICE candidates.
func (m *Manager) CreateViewer(ctx context.Context, offer string) (string, error) {
	pc, err := m.api.NewPeerConnection(webrtc.Configuration{ICEServers: m.config.ICEServers})
	if err != nil {
		return "", err
	}

	sender, err := pc.AddTrack(m.hub.Track())
	if err != nil {
		_ = pc.Close()
		return "", err
	}
	// Interceptors only see NACK and PLI while someone reads RTCP
	go func() {
		for {
			if _, _, readErr := sender.ReadRTCP(); readErr != nil {
				return
			}
		}
	}()

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}); err != nil {
		_ = pc.Close()
		return "", fmt.Errorf("%w: %w", ErrInvalidOffer, err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		_ = pc.Close()
		return "", fmt.Errorf("%w: %w", ErrInvalidOffer, err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		_ = pc.Close()
		return "", err
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		_ = pc.Close()
		return "", ctx.Err()
	}

	if err := m.hub.Acquire(); err != nil {
		_ = pc.Close()
		return "", fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}

	peerID := core.RandString(8, 10)
	m.mu.Lock()
	m.peers[peerID] = pc
	peerCount := len(m.peers)
	m.mu.Unlock()
	metrics.SetPreviewPeers(peerCount)
	m.logger.Debug("Live viewer created", "peer_id", peerID, "total_peers", peerCount)

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateDisconnected,
			webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed:
			m.remove(peerID, state.String())
		}
	})

	return pc.LocalDescription().SDP, nil
}

// remove drops a viewer once; later calls for the same peer are no-ops.
func (m *Manager) remove(peerID, reason string) {
	m.mu.Lock()
	pc, ok := m.peers[peerID]
	delete(m.peers, peerID)
	remaining := len(m.peers)
	m.mu.Unlock()
	if !ok {
		return
	}

	m.hub.Release()
	metrics.SetPreviewPeers(remaining)
	_ = pc.Close()
	m.logger.Debug("Live viewer closed", "peer_id", peerID, "reason", reason, "remaining_peers", remaining)
}

// Stop closes all viewers and the encoder.
func (m *Manager) Stop() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.remove(id, "shutdown")
	}
	m.hub.Close()
}

// PeerCount returns the number of connected viewers.
func (m *Manager) PeerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}
