package mercadopago

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound is returned by GetPaymentDetails when the gateway does
// not know the payment ID.
var ErrPaymentNotFound = errors.New("payment not found at gateway")

// Error wraps every transport or non-2xx failure talking to Mercado Pago into
// a uniform shape the callers can log and surface.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mercadopago: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("mercadopago: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("mercadopago: status=%d message=%s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PaymentData is the checkout input for a PIX payment.
type PaymentData struct {
	Name   string
	Email  string
	CPF    string
	Amount decimal.Decimal
}

// PixPaymentResponse is the subset of the gateway response the checkout flow
// needs to render a PIX charge.
type PixPaymentResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	QRCode            string `json:"qr_code"`
	QRCodeBase64      string `json:"qr_code_base64"`
	TicketURL         string `json:"ticket_url"`
	ExternalReference string `json:"external_reference"`
}

// CardPaymentRequest creates a card payment from a client-side token. The
// token is a single-use opaque artifact; declines are never retried.
type CardPaymentRequest struct {
	Token             string
	IssuerID          string
	PaymentMethodID   string
	Installments      int
	Amount            decimal.Decimal
	Description       string
	ExternalReference string
	PayerName         string
	PayerEmail        string
	PayerDocType      string
	PayerDocNumber    string
}

// Identification is a payer document reference (CPF/CNPJ).
type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

// Payer mirrors the top-level payer block of a payment detail record.
type Payer struct {
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

// Metadata carries the correlation fields this system writes at creation time
// and reads back in the webhook.
type Metadata struct {
	BuyerEmail   string `json:"buyer_email,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	PayerCPF     string `json:"payer_cpf,omitempty"`
}

// FlexNumber decodes from either a JSON number or a numeric string. The
// gateway is not consistent about which one it sends.
type FlexNumber string

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = FlexNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*n = FlexNumber(num.String())
		return nil
	}
	*n = ""
	return nil
}

func (n FlexNumber) String() string {
	return string(n)
}

func (n FlexNumber) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// ItemInfo is one line item inside additional_info. Quantity and unit price
// arrive as numbers or numeric strings depending on the delivery channel.
type ItemInfo struct {
	Title     string     `json:"title,omitempty"`
	Quantity  FlexNumber `json:"quantity,omitempty"`
	UnitPrice FlexNumber `json:"unit_price,omitempty"`
}

// AdditionalInfo mirrors the additional_info block.
type AdditionalInfo struct {
	Items []ItemInfo `json:"items,omitempty"`
	Payer *Payer     `json:"payer,omitempty"`
}

// TransactionData carries the PIX artifacts and the receipt link.
type TransactionData struct {
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// PointOfInteraction wraps TransactionData the way the gateway nests it.
type PointOfInteraction struct {
	TransactionData *TransactionData `json:"transaction_data,omitempty"`
}

// PaymentDetails is the payment detail record as reported by the gateway.
// Every field is optional: webhook payloads are inconsistent across delivery
// channels, and consumers must tolerate any subset being absent.
type PaymentDetails struct {
	ID                 json.Number         `json:"id,omitempty"`
	Status             string              `json:"status,omitempty"`
	StatusDetail       string              `json:"status_detail,omitempty"`
	RejectionReason    string              `json:"rejection_reason,omitempty"`
	ExternalReference  string              `json:"external_reference,omitempty"`
	TransactionAmount  float64             `json:"transaction_amount,omitempty"`
	Description        string              `json:"description,omitempty"`
	PaymentMethodID    string              `json:"payment_method_id,omitempty"`
	DateCreated        *time.Time          `json:"date_created,omitempty"`
	DateLastUpdated    *time.Time          `json:"date_last_updated,omitempty"`
	Payer              *Payer              `json:"payer,omitempty"`
	AdditionalInfo     *AdditionalInfo     `json:"additional_info,omitempty"`
	Metadata           *Metadata           `json:"metadata,omitempty"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`
}

// PaymentID returns the gateway payment ID as a string, empty when absent.
func (d *PaymentDetails) PaymentID() string {
	if d == nil {
		return ""
	}
	return d.ID.String()
}

// Amount returns the transaction amount as a decimal.
func (d *PaymentDetails) Amount() decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(d.TransactionAmount)
}

// ReceiptURL returns the ticket URL when the gateway provided one.
func (d *PaymentDetails) ReceiptURL() string {
	if d == nil || d.PointOfInteraction == nil || d.PointOfInteraction.TransactionData == nil {
		return ""
	}
	return d.PointOfInteraction.TransactionData.TicketURL
}
