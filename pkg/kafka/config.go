package kafka

import (
	"crypto/tls"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds Kafka connection parameters.
type Config struct {
	// ConsumerGroup is the reader group. Empty means every replica reads
	// every partition from StartOffset.
	ConsumerGroup string

	// SASLMechanism is "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512".
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	// StartOffset applies to readers without a consumer group.
	// kafka-go uses -1 for the newest and -2 for the oldest offset.
	StartOffset int64

	TLS         bool
	SASLEnabled bool
}

// Mechanism resolves the configured SASL mechanism. It returns nil when
// SASL is disabled.
func (c Config) Mechanism() (sasl.Mechanism, error) {
	if !c.SASLEnabled {
		return nil, nil
	}
	switch c.SASLMechanism {
	case "PLAIN", "":
		return plain.Mechanism{Username: c.SASLUsername, Password: c.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", c.SASLMechanism)
	}
}

func (c Config) tlsConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func (c Config) dialer() (*kafkago.Dialer, error) {
	mech, err := c.Mechanism()
	if err != nil {
		return nil, err
	}
	if mech == nil && !c.TLS {
		return nil, nil
	}
	return &kafkago.Dialer{TLS: c.tlsConfig(), SASLMechanism: mech}, nil
}

func (c Config) transport() (*kafkago.Transport, error) {
	mech, err := c.Mechanism()
	if err != nil {
		return nil, err
	}
	if mech == nil && !c.TLS {
		return nil, nil
	}
	return &kafkago.Transport{TLS: c.tlsConfig(), SASL: mech}, nil
}
