package realtime

import (
	"encoding/json"
	"fmt"
)

// Event names carried on the channel
const (
	EventAuth              = "auth"
	EventAuthSuccess       = "auth:success"
	EventNotificationNew   = "notification:new"
	EventNotificationRead  = "notification:read"
	EventNotificationsRead = "notifications:read_all"
	EventTaskChanged       = "task:changed"
)

// CloseAuthFailed is the close code sent when the handshake credential is rejected
const CloseAuthFailed = 4401

// AuthPayload carries the handshake credential
type AuthPayload struct {
	Token string `json:"token"`
}

// Frame is the envelope of every message on the channel
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Auth  *AuthPayload    `json:"auth,omitempty"`
}

// NewFrame builds a frame with a JSON-encoded payload
func NewFrame(event string, payload any) (Frame, error) {
	f := Frame{Event: event}
	if payload == nil {
		return f, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	f.Data = data
	return f, nil
}

// EncodeFrame builds and marshals a frame in one step
func EncodeFrame(event string, payload any) ([]byte, error) {
	f, err := NewFrame(event, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// DecodeFrame parses an inbound message
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return f, nil
}

// TaskChange is the tenant-wide hint emitted after a task mutation
type TaskChange struct {
	TaskID string `json:"taskId"`
	Action string `json:"action"`
}
