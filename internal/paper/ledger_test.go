package paper

import (
	"testing"

	"github.com/JoeTonDev/trading-fractals/internal/execution"
)

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	fill := execution.Fill{OrderID: "o-1", Instrument: btc.Instrument, Qty: 1}
	ledger.Record(fill)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(snapshot))
	}
	if snapshot[0].OrderID != fill.OrderID {
		t.Fatalf("unexpected fill order id")
	}
	if len(ledger.ForMarket(btc)) != 0 {
		t.Fatalf("fill without exchange must not match btc market")
	}
	fill.Exchange = btc.Exchange
	ledger.Record(fill)
	if got := ledger.ForMarket(btc); len(got) != 1 {
		t.Fatalf("expected 1 btc fill, got %d", len(got))
	}
	if ledger.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", ledger.Len())
	}

	ledger.Reset()
	if len(ledger.Snapshot()) != 0 {
		t.Fatalf("expected ledger reset")
	}
}
