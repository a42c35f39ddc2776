package telemetry

import (
	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
)

// DefaultTopic receives engine events when no topic is configured.
const DefaultTopic = "engine-events"

// KafkaSink publishes every observed event to a topic, keyed by market so one
// instrument's events stay on one partition in order.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewKafkaSink dials brokers with a synchronous producer.
func NewKafkaSink(brokers []string, topic, clientID string, log zerolog.Logger) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka sink connected")
	return NewKafkaSinkWithProducer(producer, topic, log), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSink{producer: producer, topic: topic, log: log}
}

func (s *KafkaSink) Name() string { return "kafka" }

// Observe publishes e as a kind/payload envelope. Balance events carry no key.
func (s *KafkaSink) Observe(e event.Event) error {
	data, err := event.Marshal(e)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(e.Kind().String())},
		},
	}
	if market, ok := event.MarketOf(e); ok {
		msg.Key = sarama.StringEncoder(market.String())
	}
	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	s.log.Debug().Str("kind", e.Kind().String()).Int32("partition", partition).Int64("offset", offset).Msg("event published")
	return nil
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() error { return s.producer.Close() }
