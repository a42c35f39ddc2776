package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"

	"github.com/JoeTonDev/trading-fractals/internal/event"
	"github.com/JoeTonDev/trading-fractals/internal/paper"
	"github.com/JoeTonDev/trading-fractals/internal/signal"
)

var btc = signal.NewMarket("binance", signal.NewInstrument("btc", "usdt", signal.Spot))

func marketEvent() event.Event {
	ts := time.Unix(60, 0).UTC()
	return event.Market{MarketEvent: signal.MarketEvent{Time: ts, Exchange: btc.Exchange, Instrument: btc.Instrument, Bar: signal.Bar{Time: ts, High: 2, Low: 1, Close: 1.5}}}
}

func TestJSONLSinkWritesEnvelopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	sink, err := NewJSONLSink(path)
	if err != nil {
		t.Fatalf("NewJSONLSink error: %v", err)
	}
	events := []event.Event{
		marketEvent(),
		event.Balance{Balance: paper.Balance{Total: 100, Available: 100}},
	}
	for _, e := range events {
		if err := sink.Observe(e); err != nil {
			t.Fatalf("Observe error: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := sink.Observe(marketEvent()); err == nil {
		t.Fatalf("expected error after close")
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var i int
	for scanner.Scan() {
		decoded, err := event.Unmarshal(scanner.Bytes())
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if decoded.Kind() != events[i].Kind() {
			t.Fatalf("line %d: expected %s got %s", i, events[i].Kind(), decoded.Kind())
		}
		i++
	}
	if i != len(events) {
		t.Fatalf("expected %d lines got %d", len(events), i)
	}
}

func TestKafkaSinkKeysByMarket(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != DefaultTopic {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != btc.String() {
			return fmt.Errorf("unexpected key %s", key)
		}
		return nil
	})
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Key != nil {
			return errors.New("balance events must not be keyed")
		}
		return nil
	})

	sink := NewKafkaSinkWithProducer(producer, "", zerolog.Nop())
	if err := sink.Observe(marketEvent()); err != nil {
		t.Fatalf("publish market: %v", err)
	}
	if err := sink.Observe(event.Balance{Balance: paper.Balance{Total: 1}}); err != nil {
		t.Fatalf("publish balance: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close producer: %v", err)
	}
}

func TestKafkaSinkReportsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewKafkaSinkWithProducer(producer, "events", zerolog.Nop())
	if err := sink.Observe(marketEvent()); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers got %v", err)
	}
	_ = sink.Close()
}
