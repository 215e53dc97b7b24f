package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lifeline-ems/lifeline/core/model"
)

const defaultTopicPrefix = "lifeline/events"

// mqttClient is the subset of the paho client used by the publisher.
type mqttClient interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher pushes events to an MQTT broker, one topic per event
// type under the configured prefix.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	qos    byte
}

// NewMQTTPublisher connects to the broker and returns a publisher. An
// empty prefix selects lifeline/events.
func NewMQTTPublisher(broker, clientID, prefix string, qos byte) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", token.Error())
	}
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}, nil
}

// Publish implements events.Notifier. The topic is
// <prefix>/<event type>, e.g. lifeline/events/driver_assignment.
func (p *MQTTPublisher) Publish(_ context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	topic := fmt.Sprintf("%s/%s", p.prefix, ev.Type)
	token := p.client.Publish(topic, p.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
