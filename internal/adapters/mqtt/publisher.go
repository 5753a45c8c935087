// Package mqtt publishes outbound control intents to the broker the external
// climate and lighting collaborators listen on.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/automation"
)

// Publisher sends automation intents over MQTT, one topic per zone and kind:
// <prefix>/intents/<zone>/<kind>.
type Publisher struct {
	client pahomqtt.Client
	prefix string
	logger *logrus.Logger
}

// NewPublisher connects to the broker and returns a publisher.
func NewPublisher(broker, clientID, topicPrefix string, logger *logrus.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", token.Error())
	}

	logger.WithField("broker", broker).Info("MQTT intent publisher connected")

	return &Publisher{client: client, prefix: topicPrefix, logger: logger}, nil
}

// PublishIntent implements automation.IntentPublisher.
func (p *Publisher) PublishIntent(intent automation.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}

	zone := intent.Zone
	if zone == "" {
		zone = "all"
	}
	topic := fmt.Sprintf("%s/intents/%s/%s", p.prefix, zone, intent.Kind)

	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s failed: %w", topic, err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic": topic,
		"kind":  intent.Kind,
		"zone":  intent.Zone,
	}).Debug("Intent published")

	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// LogPublisher is the intent sink used when MQTT is disabled: intents are
// recorded in memory and logged, nothing leaves the process.
type LogPublisher struct {
	mu      sync.Mutex
	logger  *logrus.Logger
	intents []automation.Intent
}

// NewLogPublisher creates an in-process intent sink.
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishIntent implements automation.IntentPublisher.
func (p *LogPublisher) PublishIntent(intent automation.Intent) error {
	p.mu.Lock()
	p.intents = append(p.intents, intent)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"kind": intent.Kind,
		"zone": intent.Zone,
	}).Info("Intent emitted (mqtt disabled)")
	return nil
}

// Intents returns a copy of every intent recorded so far.
func (p *LogPublisher) Intents() []automation.Intent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]automation.Intent, len(p.intents))
	copy(out, p.intents)
	return out
}
