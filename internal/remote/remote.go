// Package remote is the opaque remote-control bus spec.md §5 describes:
// an external client publishes slot/profile switch requests and the
// daemon publishes notifications back out. It is backed by an embedded
// NATS server (github.com/nats-io/nats-server/v2) and client
// (github.com/nats-io/nats.go), the corpus's own message-bus choice for
// exactly this kind of narrow pub/sub control channel (see
// api/pkg/pubsub), generalized from chat-session fan-out to device
// control commands.
package remote

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	SubjectSwitchSlot    = "glimmerd.control.switch_slot"
	SubjectSwitchProfile = "glimmerd.control.switch_profile"

	SubjectProfilesChanged     = "glimmerd.notify.profiles_changed"
	SubjectActiveProfileChanged = "glimmerd.notify.active_profile_changed"
	SubjectActiveSlotChanged    = "glimmerd.notify.active_slot_changed"
)

// SwitchSlotRequest selects one of the fixed profile slots.
type SwitchSlotRequest struct {
	Slot int `json:"slot"`
}

// SwitchProfileRequest loads a profile by name directly, bypassing the
// slot mapping.
type SwitchProfileRequest struct {
	Name string `json:"name"`
}

// Command is one inbound request, already decoded and correlated.
type Command struct {
	ID            string
	SwitchSlot    *SwitchSlotRequest
	SwitchProfile *SwitchProfileRequest
}

// Bus owns the embedded NATS server and the client connection used both
// to receive commands and publish notifications.
type Bus struct {
	server *natsserver.Server
	conn   *nats.Conn
	out    chan Command
	log    zerolog.Logger
}

// Start boots an embedded NATS server listening on addr (host:port, a
// negative port picks an ephemeral one) and subscribes to the inbound
// control subjects.
func Start(addr string, log zerolog.Logger) (*Bus, error) {
	hostStr, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing nats listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing nats listen port %q: %w", portStr, err)
	}
	host := hostStr

	srv, err := natsserver.NewServer(&natsserver.Options{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("starting embedded nats server: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("embedded nats server did not become ready")
	}

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("connecting to embedded nats server: %w", err)
	}

	b := &Bus{server: srv, conn: conn, out: make(chan Command, 32), log: log}

	if _, err := conn.Subscribe(SubjectSwitchSlot, b.handleSwitchSlot); err != nil {
		b.Shutdown()
		return nil, err
	}
	if _, err := conn.Subscribe(SubjectSwitchProfile, b.handleSwitchProfile); err != nil {
		b.Shutdown()
		return nil, err
	}

	return b, nil
}

func (b *Bus) handleSwitchSlot(msg *nats.Msg) {
	var req SwitchSlotRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.log.Warn().Err(err).Msg("malformed switch_slot request")
		return
	}
	b.out <- Command{ID: uuid.NewString(), SwitchSlot: &req}
}

func (b *Bus) handleSwitchProfile(msg *nats.Msg) {
	var req SwitchProfileRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.log.Warn().Err(err).Msg("malformed switch_profile request")
		return
	}
	b.out <- Command{ID: uuid.NewString(), SwitchProfile: &req}
}

// Commands returns the channel the Dispatcher drains inbound commands from.
func (b *Bus) Commands() <-chan Command { return b.out }

func (b *Bus) publish(subject string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn().Err(err).Str("subject", subject).Msg("failed to marshal notification")
		return
	}
	if err := b.conn.Publish(subject, raw); err != nil {
		b.log.Warn().Err(err).Str("subject", subject).Msg("failed to publish notification")
	}
}

// NotifyProfilesChanged announces that the on-disk profile set changed.
func (b *Bus) NotifyProfilesChanged() { b.publish(SubjectProfilesChanged, struct{}{}) }

// NotifyActiveProfileChanged announces a successful profile switch.
func (b *Bus) NotifyActiveProfileChanged(name string) {
	b.publish(SubjectActiveProfileChanged, struct {
		Name string `json:"name"`
	}{Name: name})
}

// NotifyActiveSlotChanged announces a slot selection change.
func (b *Bus) NotifyActiveSlotChanged(slot int) {
	b.publish(SubjectActiveSlotChanged, struct {
		Slot int `json:"slot"`
	}{Slot: slot})
}

// Shutdown closes the client connection and stops the embedded server.
func (b *Bus) Shutdown() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
	}
}
