package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"trolley-monitor/internal/domain/position"
	"trolley-monitor/internal/domain/trolley"
)

// PositionUpdate is one incoming GPS sample for a trolley. RecordedAt is
// the tracker's own timestamp; when zero the processor stamps receipt time.
type PositionUpdate struct {
	Lat            float64
	Lon            float64
	BatteryLevel   *int
	SignalStrength *int
	RecordedAt     time.Time
}

// PositionMessage is the wire form of a position sample as published by
// trackers over MQTT.
type PositionMessage struct {
	TrolleyID      string    `json:"trolley_id"`
	Timestamp      time.Time `json:"timestamp"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	BatteryLevel   *int      `json:"battery_level"`
	SignalStrength *int      `json:"signal_strength"`
}

// ParsePositionMessage decodes a JSON payload. A missing timestamp stays
// zero; the processor substitutes its own clock.
func ParsePositionMessage(payload []byte) (*PositionMessage, error) {
	var msg PositionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateResult is the outcome of processing one sample.
type UpdateResult struct {
	Trolley            *trolley.Trolley
	Sample             *position.Sample
	IsContained        bool
	DistanceFromStoreM float64
	SpeedKmh           *float64
	BreachDetected     bool
	ReentryDetected    bool
}

// BatchItem pairs a trolley with one update inside a batch call.
type BatchItem struct {
	TrolleyID uuid.UUID
	Update    PositionUpdate
}

// BatchFailure reports one item that failed inside a batch.
type BatchFailure struct {
	TrolleyID uuid.UUID
	Error     string
}

// BatchResult always reports every item's outcome; a batch never fails
// atomically.
type BatchResult struct {
	Successful []*UpdateResult
	Failed     []BatchFailure
}
