package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgmqtt "trolley-monitor/pkg/mqtt"
)

// MQTTIngestionConfig describes the position topic and connection handling.
type MQTTIngestionConfig struct {
	ClientConfig  *pkgmqtt.Config
	PositionTopic string
	QoS           byte
	HandleTimeout time.Duration
}

// MQTTIngestionClient wires tracker position messages into the processor.
type MQTTIngestionClient struct {
	cfg       *MQTTIngestionConfig
	client    *pkgmqtt.Client
	processor *Processor
	log       *zap.Logger

	mu      sync.Mutex
	started bool
}

func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, processor *Processor, log *zap.Logger) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if cfg.PositionTopic == "" {
		return nil, errors.New("position topic is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	return &MQTTIngestionClient{
		cfg:       cfg,
		client:    pkgmqtt.NewClient(cfg.ClientConfig, log),
		processor: processor,
		log:       log,
	}, nil
}

// Start connects and subscribes to the position topic.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return err
	}

	if err := c.client.Subscribe(c.cfg.PositionTopic, c.cfg.QoS, c.handlePositionMessage); err != nil {
		c.client.Disconnect()
		return err
	}

	c.started = true
	return nil
}

// Stop unsubscribes and disconnects.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if err := c.client.Unsubscribe(c.cfg.PositionTopic); err != nil {
		c.log.Warn("failed to unsubscribe from position topic", zap.Error(err))
	}
	c.client.Disconnect()
	c.started = false
}

func (c *MQTTIngestionClient) handlePositionMessage(topic string, payload []byte) {
	msg, err := ParsePositionMessage(payload)
	if err != nil {
		c.log.Warn("invalid position payload", zap.String("topic", topic), zap.Error(err))
		return
	}

	timeout := c.cfg.HandleTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := c.processor.UpdateLocationByRef(ctx, msg.TrolleyID, PositionUpdate{
		Lat:            msg.Lat,
		Lon:            msg.Lon,
		BatteryLevel:   msg.BatteryLevel,
		SignalStrength: msg.SignalStrength,
		RecordedAt:     msg.Timestamp,
	}); err != nil {
		c.log.Warn("failed to process position message",
			zap.String("trolley_id", msg.TrolleyID), zap.Error(err))
	}
}
