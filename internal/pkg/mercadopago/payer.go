package mercadopago

import (
	"strings"

	"github.com/lojadigital/storefront/app/models"
)

// PayerInfo is the fully-defaulted payer data extracted from a detail record.
// Fields are never empty; absent values fall back to the sentinel strings the
// payment model persists.
type PayerInfo struct {
	Name  string
	Email string
	CPF   string
}

// ExtractPayerInfo consolidates the prioritized fallback chains for the payer
// fields into one place instead of scattering null-coalescing through the
// webhook handler. Each field is resolved independently:
//
//	name:  payer.first_name+last_name → metadata.customer_name → additional_info.payer.first_name
//	email: metadata.buyer_email → payer.email → additional_info.payer.email
//	cpf:   payer.identification.number → metadata.payer_cpf → additional_info.payer.identification.number
func ExtractPayerInfo(details *PaymentDetails) PayerInfo {
	info := PayerInfo{
		Name:  models.PayerNameFallback,
		Email: models.PayerEmailFallback,
		CPF:   models.PayerCPFFallback,
	}
	if details == nil {
		return info
	}

	if name := payerFullName(details.Payer); name != "" {
		info.Name = name
	} else if details.Metadata != nil && strings.TrimSpace(details.Metadata.CustomerName) != "" {
		info.Name = strings.TrimSpace(details.Metadata.CustomerName)
	} else if p := additionalPayer(details); p != nil && strings.TrimSpace(p.FirstName) != "" {
		info.Name = strings.TrimSpace(p.FirstName)
	}

	if details.Metadata != nil && strings.TrimSpace(details.Metadata.BuyerEmail) != "" {
		info.Email = strings.TrimSpace(details.Metadata.BuyerEmail)
	} else if details.Payer != nil && strings.TrimSpace(details.Payer.Email) != "" {
		info.Email = strings.TrimSpace(details.Payer.Email)
	} else if p := additionalPayer(details); p != nil && strings.TrimSpace(p.Email) != "" {
		info.Email = strings.TrimSpace(p.Email)
	}

	if cpf := identificationNumber(details.Payer); cpf != "" {
		info.CPF = cpf
	} else if details.Metadata != nil && CleanDocument(details.Metadata.PayerCPF) != "" {
		info.CPF = CleanDocument(details.Metadata.PayerCPF)
	} else if cpf := identificationNumber(additionalPayer(details)); cpf != "" {
		info.CPF = cpf
	}

	return info
}

// BuyerEmailCandidates returns the ordered list of payer-email sources used
// for the confirmation notification. The caller picks the first candidate
// that is syntactically valid and not a placeholder.
func BuyerEmailCandidates(details *PaymentDetails) []string {
	if details == nil {
		return nil
	}
	var out []string
	if details.Metadata != nil {
		out = append(out, details.Metadata.BuyerEmail)
	}
	if p := additionalPayer(details); p != nil {
		out = append(out, p.Email)
	}
	if details.Payer != nil {
		out = append(out, details.Payer.Email)
	}
	return out
}

func payerFullName(p *Payer) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func identificationNumber(p *Payer) string {
	if p == nil || p.Identification == nil {
		return ""
	}
	return CleanDocument(p.Identification.Number)
}

func additionalPayer(details *PaymentDetails) *Payer {
	if details == nil || details.AdditionalInfo == nil {
		return nil
	}
	return details.AdditionalInfo.Payer
}
