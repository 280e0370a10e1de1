package sales

import (
	"strings"
	"unicode"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// methodAliases alias aceptados (sin acentos, en minúsculas, separadores como espacio).
var methodAliases = map[string]entity.PaymentMethod{
	"cash":          entity.PaymentCash,
	"especes":       entity.PaymentCash,
	"espece":        entity.PaymentCash,
	"liquide":       entity.PaymentCash,
	"efectivo":      entity.PaymentCash,
	"mobile money":  entity.PaymentMobileMoney,
	"mobilemoney":   entity.PaymentMobileMoney,
	"momo":          entity.PaymentMobileMoney,
	"mpesa":         entity.PaymentMobileMoney,
	"orange money":  entity.PaymentMobileMoney,
	"airtel money":  entity.PaymentMobileMoney,
	"bank transfer": entity.PaymentBankTransfer,
	"banktransfer":  entity.PaymentBankTransfer,
	"bank":          entity.PaymentBankTransfer,
	"transfer":      entity.PaymentBankTransfer,
	"virement":      entity.PaymentBankTransfer,
	"transferencia": entity.PaymentBankTransfer,
	"credit":        entity.PaymentCredit,
	"credito":       entity.PaymentCredit,
	"cheque":        entity.PaymentCheque,
	"check":         entity.PaymentCheque,
}

// NormalizeMethod resuelve el método de pago desde su nombre canónico o un alias.
// Ignora mayúsculas, acentos y separadores ("Espèces", "MOBILE-MONEY", "bank_transfer").
func NormalizeMethod(raw string) (entity.PaymentMethod, error) {
	key := foldKey(raw)
	if key == "" {
		return "", domain.ErrUnknownPaymentMethod
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", domain.ErrUnknownPaymentMethod
}

func foldKey(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = strings.NewReplacer("_", " ", "-", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
