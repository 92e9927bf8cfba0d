package mercadopago

import (
	"reflect"
	"testing"

	"github.com/lojadigital/storefront/app/models"
)

func TestExtractPayerInfo_AllSentinelsWhenEmpty(t *testing.T) {
	for _, details := range []*PaymentDetails{nil, {}} {
		info := ExtractPayerInfo(details)
		if info.Name != models.PayerNameFallback {
			t.Fatalf("Name = %q, want sentinel", info.Name)
		}
		if info.Email != models.PayerEmailFallback {
			t.Fatalf("Email = %q, want sentinel", info.Email)
		}
		if info.CPF != models.PayerCPFFallback {
			t.Fatalf("CPF = %q, want sentinel", info.CPF)
		}
	}
}

func TestExtractPayerInfo_NameChain(t *testing.T) {
	tests := []struct {
		name    string
		details *PaymentDetails
		want    string
	}{
		{
			name: "payer first and last name win",
			details: &PaymentDetails{
				Payer:    &Payer{FirstName: "Maria", LastName: "Silva"},
				Metadata: &Metadata{CustomerName: "Ignored"},
			},
			want: "Maria Silva",
		},
		{
			name: "first name only, no dangling space",
			details: &PaymentDetails{
				Payer: &Payer{FirstName: "Maria"},
			},
			want: "Maria",
		},
		{
			name: "metadata customer name second",
			details: &PaymentDetails{
				Metadata: &Metadata{CustomerName: "João Souza"},
				AdditionalInfo: &AdditionalInfo{
					Payer: &Payer{FirstName: "Ignored"},
				},
			},
			want: "João Souza",
		},
		{
			name: "additional_info payer last",
			details: &PaymentDetails{
				AdditionalInfo: &AdditionalInfo{
					Payer: &Payer{FirstName: "Ana"},
				},
			},
			want: "Ana",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPayerInfo(tt.details).Name; got != tt.want {
				t.Fatalf("Name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPayerInfo_EmailChain(t *testing.T) {
	details := &PaymentDetails{
		Metadata: &Metadata{BuyerEmail: "meta@example.org"},
		Payer:    &Payer{Email: "payer@example.org"},
	}
	if got := ExtractPayerInfo(details).Email; got != "meta@example.org" {
		t.Fatalf("metadata.buyer_email must win, got %q", got)
	}

	details.Metadata = nil
	if got := ExtractPayerInfo(details).Email; got != "payer@example.org" {
		t.Fatalf("payer.email must be second, got %q", got)
	}
}

func TestExtractPayerInfo_CPFChainDigitsOnly(t *testing.T) {
	details := &PaymentDetails{
		Payer: &Payer{Identification: &Identification{Type: "CPF", Number: "123.456.789-00"}},
	}
	if got := ExtractPayerInfo(details).CPF; got != "12345678900" {
		t.Fatalf("CPF = %q, want digits only", got)
	}

	details = &PaymentDetails{
		Metadata: &Metadata{PayerCPF: "987.654.321-11"},
	}
	if got := ExtractPayerInfo(details).CPF; got != "98765432111" {
		t.Fatalf("metadata CPF = %q, want digits only", got)
	}
}

func TestBuyerEmailCandidates_Order(t *testing.T) {
	details := &PaymentDetails{
		Metadata: &Metadata{BuyerEmail: "meta@example.org"},
		AdditionalInfo: &AdditionalInfo{
			Payer: &Payer{Email: "info@example.org"},
		},
		Payer: &Payer{Email: "payer@example.org"},
	}

	got := BuyerEmailCandidates(details)
	want := []string{"meta@example.org", "info@example.org", "payer@example.org"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}

	if got := BuyerEmailCandidates(nil); got != nil {
		t.Fatalf("nil details must yield no candidates")
	}
}
