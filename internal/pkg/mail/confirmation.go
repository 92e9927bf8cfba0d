package mail

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/lojadigital/storefront/app/models"
	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidCustomerEmail reports whether an address is syntactically plausible
// and not one of the placeholder values that end up in gateway payloads when
// the buyer email was never collected.
func IsValidCustomerEmail(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || !emailPattern.MatchString(e) {
		return false
	}
	if strings.HasSuffix(e, "@example.com") {
		return false
	}
	switch e {
	case "cliente@example.com", "cliente@exemplo.com", strings.ToLower(models.PayerEmailFallback):
		return false
	}
	return true
}

// ConfirmationData is everything the payment confirmation email needs.
type ConfirmationData struct {
	To         string
	Name       string
	OrderID    string
	Amount     decimal.Decimal
	Items      []models.PaymentItem
	ReceiptURL string
}

// BuildPaymentConfirmationBody renders the HTML body of the confirmation
// email.
func BuildPaymentConfirmationBody(data ConfirmationData) string {
	var b strings.Builder

	name := strings.TrimSpace(data.Name)
	if name == "" {
		name = "Cliente"
	}

	b.WriteString("<h2>Pagamento aprovado ✅</h2>")
	b.WriteString(fmt.Sprintf("<p>Olá %s,</p>", html.EscapeString(name)))
	b.WriteString(fmt.Sprintf("<p>Recebemos o pagamento do pedido <strong>%s</strong>.</p>", html.EscapeString(data.OrderID)))
	b.WriteString(fmt.Sprintf("<p>Valor total: <strong>R$ %s</strong></p>", data.Amount.StringFixed(2)))

	if len(data.Items) > 0 {
		b.WriteString("<table border=\"0\" cellpadding=\"4\"><tr><th align=\"left\">Item</th><th>Qtd</th><th align=\"right\">Preço</th></tr>")
		for _, item := range data.Items {
			b.WriteString(fmt.Sprintf(
				"<tr><td>%s</td><td align=\"center\">%d</td><td align=\"right\">R$ %s</td></tr>",
				html.EscapeString(item.Title), item.Quantity, item.UnitPrice.StringFixed(2),
			))
		}
		b.WriteString("</table>")
	}

	if strings.TrimSpace(data.ReceiptURL) != "" {
		b.WriteString(fmt.Sprintf("<p><a href=\"%s\">Ver comprovante</a></p>", html.EscapeString(data.ReceiptURL)))
	}

	b.WriteString("<p>Obrigado pela sua compra!</p>")
	return b.String()
}

// SendPaymentConfirmation sends the receipt email for an approved payment.
func SendPaymentConfirmation(data ConfirmationData) error {
	subject := fmt.Sprintf("Pagamento aprovado - Pedido %s", data.OrderID)
	return SendMail(data.To, subject, BuildPaymentConfirmationBody(data))
}
