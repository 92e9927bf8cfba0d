package payments

import (
	"testing"
)

func queryFrom(values map[string]string) QueryGetter {
	return func(key string) string {
		return values[key]
	}
}

func TestParseNotification_BodyFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		query    map[string]string
		wantType string
		wantID   string
	}{
		{
			name:     "typed body with string id",
			body:     `{"type":"payment","data":{"id":"12345"}}`,
			wantType: "payment",
			wantID:   "12345",
		},
		{
			name:     "typed body with numeric id",
			body:     `{"type":"payment","data":{"id":12345}}`,
			wantType: "payment",
			wantID:   "12345",
		},
		{
			name:     "action instead of type",
			body:     `{"action":"payment.updated","data":{"id":"9"}}`,
			wantType: "payment.updated",
			wantID:   "9",
		},
		{
			name:     "query-only IPN style",
			body:     ``,
			query:    map[string]string{"topic": "payment", "id": "555"},
			wantType: "payment",
			wantID:   "555",
		},
		{
			name:     "query data.id variant",
			body:     `{}`,
			query:    map[string]string{"type": "payment", "data.id": "321"},
			wantType: "payment",
			wantID:   "321",
		},
		{
			name:     "body wins over query",
			body:     `{"type":"payment","data":{"id":"1"}}`,
			query:    map[string]string{"type": "merchant_order", "id": "2"},
			wantType: "payment",
			wantID:   "1",
		},
		{
			name:     "malformed body falls back to query",
			body:     `{"type":`,
			query:    map[string]string{"topic": "payment", "id": "42"},
			wantType: "payment",
			wantID:   "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ParseNotification([]byte(tt.body), queryFrom(tt.query))
			if n.EventType != tt.wantType {
				t.Fatalf("EventType = %q, want %q", n.EventType, tt.wantType)
			}
			if n.PaymentID != tt.wantID {
				t.Fatalf("PaymentID = %q, want %q", n.PaymentID, tt.wantID)
			}
			if n.RawBody != tt.body {
				t.Fatalf("RawBody not preserved")
			}
		})
	}
}

func TestNotification_IsPaymentEvent(t *testing.T) {
	tests := []struct {
		n    Notification
		want bool
	}{
		{Notification{EventType: "payment"}, true},
		{Notification{EventType: "payment.updated"}, true},
		{Notification{EventType: "test"}, false},
		{Notification{EventType: "merchant_order"}, false},
		// An ID alone is enough; some deliveries omit the type entirely.
		{Notification{PaymentID: "123"}, true},
		{Notification{}, false},
	}

	for _, tt := range tests {
		if got := tt.n.IsPaymentEvent(); got != tt.want {
			t.Fatalf("IsPaymentEvent(%+v) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
