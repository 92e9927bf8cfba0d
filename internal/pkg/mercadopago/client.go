package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lojadigital/storefront/internal/pkg/env"
	log "github.com/sirupsen/logrus"
)

const defaultAPIBaseURL = "https://api.mercadopago.com"

// Client is a thin typed wrapper around the Mercado Pago REST API. It covers
// the three calls this system makes: preference registration + PIX creation,
// card payment creation, and the payment detail fetch used by the webhook
// reconciler.
type Client struct {
	AccessToken string
	APIBaseURL  string
	HTTPClient  *http.Client

	// notificationURL is resolved once at construction; empty means the
	// callback registration is omitted and the gateway falls back to its
	// own delivery defaults.
	notificationURL string
	publicBaseURL   string
}

// NewClientFromEnv builds a client from MERCADOPAGO_ACCESS_TOKEN,
// MP_NOTIFICATION_URL and PUBLIC_BASE_URL.
func NewClientFromEnv() *Client {
	token := strings.TrimSpace(env.GetEnv("MERCADOPAGO_ACCESS_TOKEN", ""))
	if token == "" {
		log.Warn("MERCADOPAGO_ACCESS_TOKEN not set, gateway calls will be rejected")
	}

	base := strings.TrimSpace(env.GetEnv("PUBLIC_BASE_URL", ""))
	c := &Client{
		AccessToken:   token,
		APIBaseURL:    strings.TrimRight(env.GetEnv("MP_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
		publicBaseURL: base,
	}
	c.notificationURL = ResolveNotificationURL(env.GetEnv("MP_NOTIFICATION_URL", ""), base)
	if c.notificationURL == "" {
		log.Warn("no valid HTTPS webhook URL configured, callback registration omitted")
	}
	return c
}

// NotificationURL returns the webhook callback URL registered with the
// gateway, or empty when none validated.
func (c *Client) NotificationURL() string {
	return c.notificationURL
}

// ResolveNotificationURL validates the webhook callback URL. Only absolute
// HTTPS URLs are accepted; when the explicit URL is unusable the public base
// URL is tried, skipping loopback hosts the gateway cannot reach.
func ResolveNotificationURL(explicit, publicBase string) string {
	if raw := strings.TrimSpace(explicit); raw != "" {
		u, err := url.Parse(raw)
		if err == nil && u.Scheme == "https" && u.Host != "" {
			return u.String()
		}
		return ""
	}

	base := strings.TrimSpace(publicBase)
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return ""
	}
	return u.Scheme + "://" + u.Host + "/api/webhook"
}

// NewExternalReference generates the local order correlation string. It is
// created before any gateway call so it stays stable even when the call
// fails.
func NewExternalReference() string {
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// CleanDocument strips everything but digits from a payer document number.
func CleanDocument(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreatePixPayment registers a checkout preference (required for back_urls)
// and then creates a PIX payment. The returned external reference is
// generated locally before the first call.
func (c *Client) CreatePixPayment(ctx context.Context, data PaymentData) (*PixPaymentResponse, error) {
	externalReference := NewExternalReference()
	firstName, lastName := splitName(data.Name)
	cpf := CleanDocument(data.CPF)
	amount := data.Amount.InexactFloat64()

	items := []map[string]interface{}{{
		"title":       "Produto Digital",
		"description": "Acesso completo ao conteúdo",
		"quantity":    1,
		"unit_price":  amount,
		"currency_id": "BRL",
	}}
	infoItems := []map[string]interface{}{{
		"title":      "Produto Digital",
		"quantity":   1,
		"unit_price": amount,
	}}
	metadata := map[string]interface{}{
		"buyer_email":   data.Email,
		"order_id":      externalReference,
		"customer_name": data.Name,
	}

	preference := map[string]interface{}{
		"items": items,
		"payer": map[string]interface{}{
			"name":  data.Name,
			"email": data.Email,
			"identification": map[string]string{
				"type":   "CPF",
				"number": cpf,
			},
		},
		"metadata": metadata,
		"additional_info": map[string]interface{}{
			"items": infoItems,
			// additional_info.payer.email is rejected by the gateway here.
			"payer": map[string]string{
				"first_name": firstName,
				"last_name":  lastName,
			},
		},
		"payment_methods": map[string]interface{}{
			"excluded_payment_types": []map[string]string{
				{"id": "credit_card"},
				{"id": "debit_card"},
				{"id": "bank_transfer"},
			},
			"installments": 1,
		},
		"back_urls": map[string]string{
			"success": c.publicBaseURL + "/success",
			"failure": c.publicBaseURL + "/failure",
			"pending": c.publicBaseURL + "/pending",
		},
		"auto_return":          "approved",
		"external_reference":   externalReference,
		"expires":              true,
		"expiration_date_from": time.Now().Format(time.RFC3339),
		"expiration_date_to":   time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	if c.notificationURL != "" {
		preference["notification_url"] = c.notificationURL
	}

	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", preference, nil); err != nil {
		return nil, err
	}

	payment := map[string]interface{}{
		"transaction_amount": amount,
		"description":        "Produto Digital - Acesso completo ao conteúdo",
		"payment_method_id":  "pix",
		"payer": map[string]interface{}{
			"email":      data.Email,
			"first_name": firstName,
			"last_name":  lastName,
			"identification": map[string]string{
				"type":   "CPF",
				"number": cpf,
			},
		},
		"external_reference": externalReference,
		"metadata":           metadata,
		"additional_info": map[string]interface{}{
			"items": infoItems,
			"payer": map[string]string{
				"first_name": firstName,
				"last_name":  lastName,
			},
		},
	}
	if c.notificationURL != "" {
		payment["notification_url"] = c.notificationURL
	}

	var details PaymentDetails
	if err := c.do(ctx, http.MethodPost, "/v1/payments", payment, &details); err != nil {
		return nil, err
	}

	resp := &PixPaymentResponse{
		ID:                details.PaymentID(),
		Status:            details.Status,
		ExternalReference: externalReference,
	}
	if td := details.PointOfInteraction; td != nil && td.TransactionData != nil {
		resp.QRCode = td.TransactionData.QRCode
		resp.QRCodeBase64 = td.TransactionData.QRCodeBase64
		resp.TicketURL = td.TransactionData.TicketURL
	}
	return resp, nil
}

// CreateCardPayment creates a card payment from a client-side token. Declines
// come back as *Error with the gateway's rejection code and are not retried.
func (c *Client) CreateCardPayment(ctx context.Context, req CardPaymentRequest) (*PaymentDetails, error) {
	externalReference := strings.TrimSpace(req.ExternalReference)
	if externalReference == "" {
		externalReference = NewExternalReference()
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}
	description := req.Description
	if description == "" {
		description = "Pagamento com cartão"
	}
	docType := req.PayerDocType
	if docType == "" {
		docType = "CPF"
	}
	firstName, lastName := splitName(req.PayerName)

	metadata := map[string]interface{}{
		"buyer_email": req.PayerEmail,
		"order_id":    externalReference,
	}
	infoPayer := map[string]interface{}{
		"email": req.PayerEmail,
	}
	if strings.TrimSpace(req.PayerName) != "" {
		metadata["customer_name"] = req.PayerName
		infoPayer["first_name"] = firstName
		infoPayer["last_name"] = lastName
	}

	body := map[string]interface{}{
		"token":              req.Token,
		"payment_method_id":  req.PaymentMethodID,
		"transaction_amount": req.Amount.InexactFloat64(),
		"installments":       installments,
		"description":        description,
		"external_reference": externalReference,
		"capture":            true,
		"payer": map[string]interface{}{
			"email": req.PayerEmail,
			"identification": map[string]string{
				"type":   docType,
				"number": CleanDocument(req.PayerDocNumber),
			},
		},
		"metadata": metadata,
		"additional_info": map[string]interface{}{
			"payer": infoPayer,
		},
	}
	if req.IssuerID != "" {
		body["issuer_id"] = req.IssuerID
	}
	if c.notificationURL != "" {
		body["notification_url"] = c.notificationURL
	}

	var details PaymentDetails
	if err := c.do(ctx, http.MethodPost, "/v1/payments", body, &details); err != nil {
		return nil, err
	}
	if details.ExternalReference == "" {
		details.ExternalReference = externalReference
	}
	return &details, nil
}

// GetPaymentDetails fetches the full detail record for a gateway payment ID.
// Pure read, safe to call repeatedly.
func (c *Client) GetPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, &Error{Message: "payment id is required"}
	}

	var details PaymentDetails
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &details); err != nil {
		var mpErr *Error
		if errors.As(err, &mpErr) && mpErr.StatusCode == http.StatusNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &details, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		log.WithFields(log.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warnf("gateway call failed: %s", apiErr.Message)
		return apiErr
	}

	if out != nil {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Message: "decode response body", Err: err}
		}
	}
	return nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
