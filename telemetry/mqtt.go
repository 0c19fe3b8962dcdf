// Package telemetry publishes scope statistics to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/peragwin/xyscope/scope"
)

// Status is the published message.
type Status struct {
	Source string      `json:"source"`
	Time   time.Time   `json:"time"`
	Stats  scope.Stats `json:"stats"`
}

func (s *Status) publish(client mqtt.Client, topic string) error {
	bs, err := json.Marshal(s)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 0, false, bs)
	token.WaitTimeout(100 * time.Millisecond)
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// Publisher sends Status messages to one topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	id     string
}

// ClientID names this instance on the broker. The random suffix lets several
// scopes run on one host.
func ClientID() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("xyscope-%s-%s", hostname, uuid.New().String()[:8]), nil
}

// NewPublisher connects to broker, e.g. "tcp://localhost:1883".
func NewPublisher(broker, topic string) (*Publisher, error) {
	id, err := ClientID()
	if err != nil {
		return nil, err
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)

	conn := client.Connect()
	conn.Wait()
	if err := conn.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", broker, err)
	}
	glog.Infof("connected to mqtt broker %s as %s", broker, id)
	return &Publisher{client: client, topic: topic, id: id}, nil
}

// Publish sends one status message.
func (p *Publisher) Publish(st scope.Stats) error {
	s := &Status{Source: p.id, Time: time.Now(), Stats: st}
	return s.publish(p.client, p.topic)
}

// Run publishes every period until ctx is done, then disconnects.
func (p *Publisher) Run(ctx context.Context, period time.Duration, stats func(context.Context) (scope.Stats, error)) {
	defer p.client.Disconnect(250)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := stats(ctx)
			if err != nil {
				glog.V(1).Infof("telemetry: %v", err)
				continue
			}
			if err := p.Publish(st); err != nil {
				glog.Warningf("telemetry: %v", err)
			}
		}
	}
}
