package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/godaq/pkg/config"
)

// MQTT publishes averaged rows to an MQTT broker, one message per
// channel on "<topic>/<channel name>".
type MQTT struct {
	client mqtt.Client
	topic  string
}

// message is the JSON payload published per channel.
type message struct {
	Time    string  `json:"time"`
	Channel string  `json:"channel"`
	Label   string  `json:"label"`
	Average float64 `json:"average"`
}

// NewMQTT connects to the configured broker.
func NewMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Server, token.Error())
	}

	return &MQTT{client: client, topic: cfg.Topic}, nil
}

// Publish sends one JSON message per channel.
func (m *MQTT) Publish(row Row) error {
	stamp := row.Stamp.Format(time.RFC3339)
	for i, ch := range row.Channels {
		payload, err := json.Marshal(message{
			Time:    stamp,
			Channel: ch.Name,
			Label:   ch.Label,
			Average: row.Values[i],
		})
		if err != nil {
			return fmt.Errorf("failed to marshal payload for %s: %w", ch.Name, err)
		}

		token := m.client.Publish(m.topic+"/"+ch.Name, 0, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish %s: %w", ch.Name, err)
		}
	}

	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
		m.client = nil
	}
	return nil
}
