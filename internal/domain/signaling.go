package domain

import (
	"errors"

	"github.com/pion/webrtc/v4"
)

var (
	ErrUnknownRole  = errors.New("unknown signaling role")
	ErrRoleMismatch = errors.New("sdp type does not match role")
	ErrEmptySDP     = errors.New("empty sdp")
)

// SignalRole names a mailbox slot.
type SignalRole string

const (
	RoleOffer  SignalRole = "offer"
	RoleAnswer SignalRole = "answer"
)

// SignalingPayload is relayed as is. Only the type tag is inspected.
type SignalingPayload = webrtc.SessionDescription

// ValidatePayload checks that p may be stored under role.
func ValidatePayload(role SignalRole, p SignalingPayload) error {
	var want webrtc.SDPType
	switch role {
	case RoleOffer:
		want = webrtc.SDPTypeOffer
	case RoleAnswer:
		want = webrtc.SDPTypeAnswer
	default:
		return ErrUnknownRole
	}
	if p.Type != want {
		return ErrRoleMismatch
	}
	if p.SDP == "" {
		return ErrEmptySDP
	}
	return nil
}
