package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
)

const DefaultOfferTTL = 300 * time.Second

func mailboxKey(senior domain.SeniorID, role domain.SignalRole) string {
	return "webrtc:" + string(role) + ":senior:" + senior.String()
}

// SignalingMailbox holds at most one pending payload per senior and role.
// Reads are destructive.
type SignalingMailbox struct {
	store   core.KeyValueStore
	ttl     time.Duration
	metrics *Metrics
}

func NewSignalingMailbox(store core.KeyValueStore, ttl time.Duration, metrics *Metrics) *SignalingMailbox {
	if ttl <= 0 {
		ttl = DefaultOfferTTL
	}
	return &SignalingMailbox{store: store, ttl: ttl, metrics: metrics}
}

// Register replaces whatever unconsumed payload sits in the slot.
func (m *SignalingMailbox) Register(ctx context.Context, senior domain.SeniorID, role domain.SignalRole, p domain.SignalingPayload) error {
	if err := domain.ValidatePayload(role, p); err != nil {
		return fmt.Errorf("mailbox: register %s for senior %d: %w", role, senior, err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("mailbox: register %s for senior %d: %w", role, senior, err)
	}
	if err := m.store.Set(ctx, mailboxKey(senior, role), string(raw), m.ttl); err != nil {
		return fmt.Errorf("mailbox: register %s for senior %d: %w", role, senior, err)
	}
	return nil
}

// Consume takes the payload out of the slot. Of two concurrent callers at
// most one gets it.
func (m *SignalingMailbox) Consume(ctx context.Context, senior domain.SeniorID, role domain.SignalRole) (domain.SignalingPayload, bool, error) {
	raw, err := m.store.GetDel(ctx, mailboxKey(senior, role))
	if errors.Is(err, core.ErrMiss) {
		m.metrics.mailboxRead(role, false)
		return domain.SignalingPayload{}, false, nil
	}
	if err != nil {
		return domain.SignalingPayload{}, false, fmt.Errorf("mailbox: consume %s for senior %d: %w", role, senior, err)
	}
	var p domain.SignalingPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.SignalingPayload{}, false, fmt.Errorf("mailbox: corrupt %s for senior %d: %w", role, senior, err)
	}
	m.metrics.mailboxRead(role, true)
	return p, true, nil
}
