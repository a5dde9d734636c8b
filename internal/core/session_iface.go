package core

import (
	"context"

	"github.com/dkeye/carelink/internal/domain"
)

// Bus carries frames addressed to a session held by another process.
type Bus interface {
	Publish(ctx context.Context, sid domain.SessionID, f Frame) error
	// Subscribe blocks, calling deliver for every published frame until ctx is done.
	Subscribe(ctx context.Context, deliver func(domain.SessionID, Frame)) error
}

// RoutedReply is a hub's safety check reply on its way to the process that
// issued the check.
type RoutedReply struct {
	From          domain.SessionID  `json:"from"`
	CorrelationID string            `json:"correlation_id"`
	Kind          domain.CheckReply `json:"kind"`
	Detail        string            `json:"detail,omitempty"`
}

// ReplyBus carries safety check replies between processes.
type ReplyBus interface {
	PublishReply(ctx context.Context, r RoutedReply) error
	// SubscribeReplies blocks, calling deliver for every reply until ctx is done.
	SubscribeReplies(ctx context.Context, deliver func(RoutedReply)) error
}
