package payments

import (
	"encoding/json"
	"strings"
)

// Notification is the normalized form of one inbound gateway webhook call.
// The gateway's delivery format is inconsistent: fields may arrive in the
// JSON body, only as query parameters, or both, so parsing checks each source
// in order and never fails on unrecognized payloads.
type Notification struct {
	EventType string
	PaymentID string
	RawBody   string
}

// QueryGetter resolves a query parameter by name. It matches the signature of
// fiber's Ctx.Query with a default.
type QueryGetter func(key string) string

// ParseNotification extracts the event type and gateway payment ID from the
// request body, falling back to query parameters field by field.
func ParseNotification(body []byte, query QueryGetter) Notification {
	n := Notification{RawBody: string(body)}

	var parsed struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		Data   struct {
			ID flexibleID `json:"id"`
		} `json:"data"`
	}
	if len(body) > 0 {
		// A malformed body is not an error; the query parameters may
		// still identify the event.
		_ = json.Unmarshal(body, &parsed)
	}

	n.EventType = firstNonEmpty(
		parsed.Type,
		parsed.Action,
		query("type"),
		query("topic"),
		query("action"),
	)
	n.PaymentID = firstNonEmpty(
		string(parsed.Data.ID),
		query("data.id"),
		query("id"),
	)
	return n
}

// IsPaymentEvent reports whether this notification plausibly refers to a
// payment. Anything else is acknowledged without processing; unknown future
// event types must never break the endpoint.
func (n Notification) IsPaymentEvent() bool {
	return strings.Contains(strings.ToLower(n.EventType), "payment") || n.PaymentID != ""
}

// flexibleID is a payment ID that the gateway serializes as either a JSON
// string or a bare number depending on the delivery path.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleID(n.String())
		return nil
	}
	*f = ""
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
