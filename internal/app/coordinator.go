package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/carelink/internal/core"
	"github.com/dkeye/carelink/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultCheckTimeout = 60 * time.Second

const (
	checkKeyPrefix = "check:target:"
	// checkKeySlack keeps the shared index entry alive a little past the deadline.
	checkKeySlack = 5 * time.Second
)

// CheckState is the lifecycle of one safety check. Replied and TimedOut
// are terminal.
type CheckState int32

const (
	CheckIssued CheckState = iota
	CheckReplied
	CheckTimedOut
)

func (s CheckState) String() string {
	switch s {
	case CheckIssued:
		return "issued"
	case CheckReplied:
		return "replied"
	case CheckTimedOut:
		return "timed_out"
	}
	return "unknown"
}

type CheckReply struct {
	Kind   domain.CheckReply
	Detail string
}

type CheckOutcome struct {
	CorrelationID string
	State         CheckState
	Reply         CheckReply
	Undelivered   bool
}

// PendingCheck lives in the process that issued it. Other processes only
// see its index entry in the store.
type PendingCheck struct {
	CorrelationID string
	Initiator     domain.SessionID
	Target        domain.SessionID
	Senior        domain.SeniorID
	IssuedAt      time.Time
	Deadline      time.Time

	state atomic.Int32
	done  chan CheckReply
}

func (p *PendingCheck) State() CheckState { return CheckState(p.state.Load()) }

func (p *PendingCheck) transition(to CheckState) bool {
	return p.state.CompareAndSwap(int32(CheckIssued), int32(to))
}

// Coordinator issues safety checks and waits for the correlated reply.
// It never retries; a timed out check is the caller's to escalate.
type Coordinator struct {
	emitter Emitter
	timeout time.Duration
	metrics *Metrics

	// store and replies are set when several processes share the bus.
	store   core.KeyValueStore
	replies core.ReplyBus

	mu      sync.Mutex
	pending map[string]*PendingCheck
}

func NewCoordinator(emitter Emitter, timeout time.Duration, metrics *Metrics) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Coordinator{
		emitter: emitter,
		timeout: timeout,
		metrics: metrics,
		pending: make(map[string]*PendingCheck),
	}
}

// WithPeers lets replies that reach another process find their way back.
// Pending checks are indexed in store; replies travel over the bus.
func (c *Coordinator) WithPeers(store core.KeyValueStore, replies core.ReplyBus) *Coordinator {
	c.store = store
	c.replies = replies
	return c
}

func (c *Coordinator) Timeout() time.Duration { return c.timeout }

func checkKey(target domain.SessionID, correlationID string) string {
	return checkKeyPrefix + string(target) + ":" + correlationID
}

// Issue sends request_safety_check to target and blocks until a reply is
// resolved or the timeout elapses. A zero timeout uses the configured one.
// A request that cannot be handed to the transport times out at once.
func (c *Coordinator) Issue(ctx context.Context, initiator, target domain.SessionID, senior domain.SeniorID, timeout time.Duration) (CheckOutcome, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	now := time.Now()
	pc := &PendingCheck{
		CorrelationID: uuid.NewString(),
		Initiator:     initiator,
		Target:        target,
		Senior:        senior,
		IssuedAt:      now,
		Deadline:      now.Add(timeout),
		done:          make(chan CheckReply, 1),
	}
	logger := log.With().Str("module", "app.coordinator").
		Str("correlation_id", pc.CorrelationID).
		Str("target", string(target)).
		Int64("senior_id", int64(senior)).
		Logger()

	c.mu.Lock()
	c.pending[pc.CorrelationID] = pc
	c.mu.Unlock()
	c.share(ctx, pc, timeout, logger)
	defer c.forget(ctx, pc)

	req := domain.SafetyCheckRequest{CorrelationID: pc.CorrelationID, SeniorID: senior}
	if !c.emitter.Emit(ctx, target, domain.EventRequestSafetyCheck, req) {
		pc.transition(CheckTimedOut)
		logger.Warn().Msg("check request undeliverable")
		c.metrics.checkOutcome(CheckTimedOut)
		return CheckOutcome{CorrelationID: pc.CorrelationID, State: CheckTimedOut, Undelivered: true}, nil
	}
	logger.Info().Dur("timeout", timeout).Msg("check issued")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-pc.done:
		return c.replied(pc, r, logger), nil
	case <-timer.C:
		if pc.transition(CheckTimedOut) {
			logger.Warn().Msg("check timed out")
			c.metrics.checkOutcome(CheckTimedOut)
			return CheckOutcome{CorrelationID: pc.CorrelationID, State: CheckTimedOut}, nil
		}
		// a reply won the race against the timer
		return c.replied(pc, <-pc.done, logger), nil
	case <-ctx.Done():
		if pc.transition(CheckTimedOut) {
			return CheckOutcome{CorrelationID: pc.CorrelationID, State: CheckTimedOut}, ctx.Err()
		}
		return c.replied(pc, <-pc.done, logger), nil
	}
}

func (c *Coordinator) replied(pc *PendingCheck, r CheckReply, logger zerolog.Logger) CheckOutcome {
	logger.Info().Str("reply", string(r.Kind)).Msg("check replied")
	c.metrics.checkOutcome(CheckReplied)
	return CheckOutcome{CorrelationID: pc.CorrelationID, State: CheckReplied, Reply: r}
}

// Resolve matches a hub reply to its pending check. Without a correlation
// id the oldest check still waiting on from is taken. It reports false for
// unknown, foreign or late replies, which are dropped.
func (c *Coordinator) Resolve(from domain.SessionID, correlationID string, r CheckReply) (*PendingCheck, bool) {
	c.mu.Lock()
	pc := c.find(from, correlationID)
	c.mu.Unlock()

	logger := log.With().Str("module", "app.coordinator").Str("sid", string(from)).Str("correlation_id", correlationID).Logger()
	if pc == nil {
		logger.Warn().Str("reply", string(r.Kind)).Msg("reply matches no pending check")
		return nil, false
	}
	if pc.Target != from {
		logger.Warn().Str("target", string(pc.Target)).Msg("reply from a connection the check was not sent to")
		return nil, false
	}
	if !pc.transition(CheckReplied) {
		logger.Warn().Str("state", pc.State().String()).Msg("late reply discarded")
		return pc, false
	}
	pc.done <- r
	return pc, true
}

func (c *Coordinator) find(from domain.SessionID, correlationID string) *PendingCheck {
	if correlationID != "" {
		return c.pending[correlationID]
	}
	var oldest *PendingCheck
	for _, pc := range c.pending {
		if pc.Target != from || pc.State() != CheckIssued {
			continue
		}
		if oldest == nil || pc.IssuedAt.Before(oldest.IssuedAt) {
			oldest = pc
		}
	}
	return oldest
}

// share indexes pc so a process holding the target's socket can route a
// reply back. A failed write only costs cross-process delivery.
func (c *Coordinator) share(ctx context.Context, pc *PendingCheck, timeout time.Duration, logger zerolog.Logger) {
	if c.store == nil {
		return
	}
	at := strconv.FormatInt(pc.IssuedAt.UnixNano(), 10)
	if err := c.store.Set(ctx, checkKey(pc.Target, pc.CorrelationID), at, timeout+checkKeySlack); err != nil {
		logger.Error().Err(err).Msg("index pending check")
	}
}

func (c *Coordinator) forget(ctx context.Context, pc *PendingCheck) {
	c.mu.Lock()
	delete(c.pending, pc.CorrelationID)
	c.mu.Unlock()
	if c.store == nil {
		return
	}
	b := core.NewBatch().Del(checkKey(pc.Target, pc.CorrelationID))
	if err := c.store.Apply(context.WithoutCancel(ctx), b); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("correlation_id", pc.CorrelationID).Msg("drop check index")
	}
}

// Forward hands a reply that matched nothing here to the process that
// issued the check. Without a correlation id the oldest check pending on
// from is taken. It reports whether such a check exists anywhere.
func (c *Coordinator) Forward(ctx context.Context, from domain.SessionID, correlationID string, r CheckReply) (bool, error) {
	if c.store == nil || c.replies == nil {
		return false, nil
	}
	if correlationID == "" {
		id, ok, err := c.oldestShared(ctx, from)
		if err != nil || !ok {
			return false, err
		}
		correlationID = id
	} else {
		_, err := c.store.Get(ctx, checkKey(from, correlationID))
		if errors.Is(err, core.ErrMiss) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("coordinator: lookup %s: %w", correlationID, err)
		}
	}

	err := c.replies.PublishReply(ctx, core.RoutedReply{
		From:          from,
		CorrelationID: correlationID,
		Kind:          r.Kind,
		Detail:        r.Detail,
	})
	if err != nil {
		return false, fmt.Errorf("coordinator: forward %s: %w", correlationID, err)
	}
	log.Debug().Str("module", "app.coordinator").Str("sid", string(from)).Str("correlation_id", correlationID).Msg("reply forwarded")
	return true, nil
}

func (c *Coordinator) oldestShared(ctx context.Context, target domain.SessionID) (string, bool, error) {
	prefix := checkKeyPrefix + string(target) + ":"
	entries, err := c.store.ScanPrefix(ctx, prefix)
	if err != nil {
		return "", false, fmt.Errorf("coordinator: scan %s: %w", target, err)
	}
	var (
		oldestID string
		oldestAt int64
	)
	for key, v := range entries {
		at, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		if oldestID == "" || at < oldestAt {
			oldestID, oldestAt = strings.TrimPrefix(key, prefix), at
		}
	}
	return oldestID, oldestID != "", nil
}

// OnReply is the reply bus callback. Replies to checks issued by other
// processes are ignored.
func (c *Coordinator) OnReply(r core.RoutedReply) {
	c.mu.Lock()
	_, mine := c.pending[r.CorrelationID]
	c.mu.Unlock()
	if !mine {
		return
	}
	c.Resolve(r.From, r.CorrelationID, CheckReply{Kind: r.Kind, Detail: r.Detail})
}

// Pending returns the number of checks still waiting.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
