package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic is where pose samples are published.
const DefaultTopic = "spinup/pose"

// publisher is the part of mqtt.Client the publisher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher sends pose samples to an MQTT broker as JSON.
type MQTTPublisher struct {
	client  publisher
	topic   string
	timeout time.Duration
	close   func()
}

// message is the JSON payload of one sample.
type message struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Time    int64   `json:"time_ms"`
}

// DialMQTT connects to broker, e.g. "tcp://localhost:1883", and returns a
// publisher for topic.
func DialMQTT(broker, topic, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	p := newMQTTPublisher(client, topic)
	p.close = func() { client.Disconnect(250) }
	return p, nil
}

func newMQTTPublisher(client publisher, topic string) *MQTTPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTPublisher{client: client, topic: topic, timeout: time.Second}
}

// Topic returns the topic samples are published to.
func (p *MQTTPublisher) Topic() string {
	return p.topic
}

// Publish sends one sample.
func (p *MQTTPublisher) Publish(s State) error {
	payload, err := json.Marshal(message{
		X:       s.Pose.X,
		Y:       s.Pose.Y,
		Heading: s.Pose.Heading,
		Time:    s.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode pose: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Run publishes every state received until ctx is done or states is closed.
// Publish errors are passed to onErr and do not stop the loop.
func (p *MQTTPublisher) Run(ctx context.Context, states <-chan State, onErr func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-states:
			if !ok {
				return nil
			}
			if err := p.Publish(s); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}
