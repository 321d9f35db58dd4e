package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types published on the fetch topic.
const (
	TypeDashboardFetch = "dashboard_fetch"
	TypeCRMPull        = "crm_pull"
)

// Envelope wraps every outbound message.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// FetchReport is the payload for both message types.
type FetchReport struct {
	ViewerID   string `json:"viewer_id,omitempty"`
	OK         bool   `json:"ok"`
	OrderCount int    `json:"order_count"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// NewEnvelope creates an outbound envelope with a new UUID and timestamp.
func NewEnvelope(msgType, source string, payload any) *Envelope {
	return &Envelope{
		MsgType:   msgType,
		MsgID:     uuid.New().String(),
		Source:    source,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.MsgType, err)
	}
	return data, nil
}
