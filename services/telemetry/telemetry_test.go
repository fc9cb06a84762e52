package telemetry

import (
	"testing"
	"time"
)

func TestNewRegistersAllFourFamilies(t *testing.T) {
	m := New()
	families, err := m.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestCounterIncrementsAreReflectedInGather(t *testing.T) {
	m := New()
	m.OrdersSubmitted.Inc()
	m.OrdersSubmitted.Inc()
	m.OrdersDenied.Inc()

	families, err := m.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var submitted, denied float64
	for _, f := range families {
		switch f.GetName() {
		case "backtest_orders_submitted_total":
			submitted = f.Metric[0].GetCounter().GetValue()
		case "backtest_orders_denied_total":
			denied = f.Metric[0].GetCounter().GetValue()
		}
	}
	if submitted != 2 {
		t.Fatalf("expected orders_submitted=2, got %v", submitted)
	}
	if denied != 1 {
		t.Fatalf("expected orders_denied=1, got %v", denied)
	}
}

func TestObserveRecordLatencyAddsASample(t *testing.T) {
	m := New()
	m.ObserveRecordLatency(time.Now())

	families, err := m.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "backtest_record_processing_seconds" {
			if f.Metric[0].GetHistogram().GetSampleCount() != 1 {
				t.Fatalf("expected 1 histogram sample, got %d", f.Metric[0].GetHistogram().GetSampleCount())
			}
			return
		}
	}
	t.Fatal("backtest_record_processing_seconds family not found")
}

func TestTwoInstancesDoNotCollideOnMetricNames(t *testing.T) {
	m1 := New()
	m2 := New()
	m1.OrdersFilled.Inc()

	f1, err := m1.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := m2.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v1, v2 float64
	for _, f := range f1 {
		if f.GetName() == "backtest_orders_filled_total" {
			v1 = f.Metric[0].GetCounter().GetValue()
		}
	}
	for _, f := range f2 {
		if f.GetName() == "backtest_orders_filled_total" {
			v2 = f.Metric[0].GetCounter().GetValue()
		}
	}
	if v1 != 1 {
		t.Fatalf("expected m1's counter=1, got %v", v1)
	}
	if v2 != 0 {
		t.Fatalf("expected m2's counter to stay 0 on its own private registry, got %v", v2)
	}
}
