package signal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecisionEntryExit(t *testing.T) {
	cases := []struct {
		d     Decision
		entry bool
		exit  bool
	}{
		{Long, true, false},
		{Short, true, false},
		{CloseLong, false, true},
		{CloseShort, false, true},
	}
	for _, tc := range cases {
		if tc.d.IsEntry() != tc.entry {
			t.Fatalf("%s: expected IsEntry=%v", tc.d, tc.entry)
		}
		if tc.d.IsExit() != tc.exit {
			t.Fatalf("%s: expected IsExit=%v", tc.d, tc.exit)
		}
	}
	if !Long.IsLong() || Long.IsShort() || !Short.IsShort() {
		t.Fatalf("unexpected long/short helpers")
	}
}

func TestSignalJSONKeysDecisionsByName(t *testing.T) {
	sig := Signal{
		Time:       time.Unix(0, 0).UTC(),
		Exchange:   "binance",
		Instrument: NewInstrument("BTC", "USDT", ""),
		Signals:    map[Decision]SignalStrength{Short: 0.75},
		MarketMeta: MarketMeta{Close: 101, Time: time.Unix(0, 0).UTC()},
	}
	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	signals, ok := raw["signals"].(map[string]any)
	if !ok || signals["short"] != 0.75 {
		t.Fatalf("expected signals keyed by name, got %s", data)
	}

	var decoded Signal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Signals[Short] != 0.75 {
		t.Fatalf("decision key lost in round trip: %+v", decoded.Signals)
	}
}

func TestParseInstrument(t *testing.T) {
	for _, in := range []string{"btc_usdt", "BTC/USDT", " btc-usdt "} {
		inst, err := ParseInstrument(in)
		if err != nil {
			t.Fatalf("ParseInstrument(%q): %v", in, err)
		}
		if inst.Base != "btc" || inst.Quote != "usdt" || inst.Kind != Spot {
			t.Fatalf("unexpected instrument for %q: %+v", in, inst)
		}
		if inst.Symbol() != "BTCUSDT" {
			t.Fatalf("unexpected symbol %s", inst.Symbol())
		}
	}
	if _, err := ParseInstrument("btcusdt"); err == nil {
		t.Fatalf("expected error for symbol without separator")
	}
}

func TestNewSignalForceExitFromMarket(t *testing.T) {
	market := NewMarket("Binance", NewInstrument("eth", "usdt", Spot))
	before := time.Now().UTC()
	exit := NewSignalForceExit(market)
	if exit.Market() != market {
		t.Fatalf("expected market %v, got %v", market, exit.Market())
	}
	if exit.Time.Before(before) {
		t.Fatalf("expected force exit stamped with current time")
	}
	if market.Exchange != "binance" {
		t.Fatalf("expected lower-cased exchange, got %s", market.Exchange)
	}
}
