package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentStatus
	}{
		{"approved", PAYMENT_APPROVED},
		{"APPROVED", PAYMENT_APPROVED},
		{" pending ", PAYMENT_PENDING},
		{"authorized", PAYMENT_AUTHORIZED},
		{"in_process", PAYMENT_IN_PROCESS},
		{"in_mediation", PAYMENT_IN_MEDIATION},
		{"rejected", PAYMENT_REJECTED},
		{"cancelled", PAYMENT_CANCELLED},
		{"refunded", PAYMENT_REFUNDED},
		{"charged_back", PAYMENT_CHARGED_BACK},
		{"", PAYMENT_PENDING},
		// Future gateway statuses must not break processing.
		{"partially_refunded", PAYMENT_UNKNOWN},
		{"something_new", PAYMENT_UNKNOWN},
	}

	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	terminal := []PaymentStatus{PAYMENT_APPROVED, PAYMENT_REJECTED, PAYMENT_CANCELLED}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%q should be terminal", s)
		}
	}
	open := []PaymentStatus{PAYMENT_PENDING, PAYMENT_IN_PROCESS, PAYMENT_IN_MEDIATION, PAYMENT_AUTHORIZED, PAYMENT_UNKNOWN}
	for _, s := range open {
		if s.IsTerminal() {
			t.Fatalf("%q should not be terminal", s)
		}
	}
}

func TestPaymentItemsRoundTrip(t *testing.T) {
	p := &Payment{}
	items := []PaymentItem{
		{Title: "Produto Digital", Quantity: 2, UnitPrice: decimal.NewFromFloat(49.9)},
		{Title: "Frete", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	}
	if err := p.SetItems(items); err != nil {
		t.Fatalf("SetItems: %v", err)
	}

	got := p.Items()
	if len(got) != 2 {
		t.Fatalf("expected 2 items back, got %d", len(got))
	}
	if got[0].Title != "Produto Digital" || got[0].Quantity != 2 {
		t.Fatalf("unexpected first item: %+v", got[0])
	}
	if !got[0].UnitPrice.Equal(decimal.NewFromFloat(49.9)) {
		t.Fatalf("unit price lost precision: %s", got[0].UnitPrice)
	}
}

func TestPaymentItems_EmptyAndMalformed(t *testing.T) {
	p := &Payment{}
	if err := p.SetItems(nil); err != nil {
		t.Fatalf("SetItems(nil): %v", err)
	}
	if p.ItemsJSON != "" {
		t.Fatalf("nil items must clear the column, got %q", p.ItemsJSON)
	}
	if p.Items() != nil {
		t.Fatalf("empty column must yield no items")
	}

	p.ItemsJSON = "{not json"
	if p.Items() != nil {
		t.Fatalf("malformed column must yield no items, not panic")
	}
}

func TestApplyPayerFallbacks(t *testing.T) {
	p := &Payment{}
	p.ApplyPayerFallbacks()

	if p.PayerName != PayerNameFallback {
		t.Fatalf("PayerName = %q", p.PayerName)
	}
	if p.PayerEmail != PayerEmailFallback {
		t.Fatalf("PayerEmail = %q", p.PayerEmail)
	}
	if p.PayerCPF != PayerCPFFallback {
		t.Fatalf("PayerCPF = %q", p.PayerCPF)
	}
	if p.PaymentMethod != "unknown" {
		t.Fatalf("PaymentMethod = %q", p.PaymentMethod)
	}

	p = &Payment{PayerName: "Maria", PayerEmail: "maria@example.org", PayerCPF: "12345678900", PaymentMethod: "pix"}
	p.ApplyPayerFallbacks()
	if p.PayerName != "Maria" || p.PayerEmail != "maria@example.org" || p.PayerCPF != "12345678900" || p.PaymentMethod != "pix" {
		t.Fatalf("populated fields must be kept: %+v", p)
	}
}
