package mail

import (
	"strings"
	"testing"

	"github.com/lojadigital/storefront/app/models"
	"github.com/shopspring/decimal"
)

func TestIsValidCustomerEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"maria@example.org", true},
		{"maria.silva+loja@gmail.com", true},
		{"  maria@example.org  ", true},
		{"", false},
		{"not-an-email", false},
		{"maria@", false},
		{"@example.org", false},
		{"maria@example", false},
		// Placeholder values the gateway fills in when no buyer email was
		// collected.
		{"cliente@example.com", false},
		{"cliente@exemplo.com", false},
		{"anything@example.com", false},
		{"CLIENTE@EXAMPLE.COM", false},
		{models.PayerEmailFallback, false},
	}

	for _, tt := range tests {
		if got := IsValidCustomerEmail(tt.email); got != tt.want {
			t.Fatalf("IsValidCustomerEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestBuildPaymentConfirmationBody(t *testing.T) {
	body := BuildPaymentConfirmationBody(ConfirmationData{
		To:      "maria@example.org",
		Name:    "Maria <script>",
		OrderID: "order_1_abc",
		Amount:  decimal.NewFromFloat(199.9),
		Items: []models.PaymentItem{
			{Title: "Produto Digital", Quantity: 2, UnitPrice: decimal.NewFromFloat(99.95)},
		},
		ReceiptURL: "https://mpago.la/receipt/1",
	})

	for _, want := range []string{
		"order_1_abc",
		"R$ 199.90",
		"Produto Digital",
		"R$ 99.95",
		"https://mpago.la/receipt/1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("name must be HTML-escaped:\n%s", body)
	}
}

func TestBuildPaymentConfirmationBody_Defaults(t *testing.T) {
	body := BuildPaymentConfirmationBody(ConfirmationData{
		OrderID: "order_2_def",
		Amount:  decimal.NewFromInt(50),
	})

	if !strings.Contains(body, "Olá Cliente") {
		t.Fatalf("expected generic salutation without a name:\n%s", body)
	}
	if strings.Contains(body, "<table") {
		t.Fatalf("no item table without items:\n%s", body)
	}
	if strings.Contains(body, "comprovante") {
		t.Fatalf("no receipt link without a receipt URL:\n%s", body)
	}
}
