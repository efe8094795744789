package pagarme

import "fmt"

const (
	// AllowedPaymentMethod é o único meio aceito para liberar acesso VIP
	AllowedPaymentMethod = "pix"

	// PixExpirationSeconds é a validade do QR code (15 minutos)
	PixExpirationSeconds = 900

	AllowedDocumentType = "CPF"
	AllowedCustomerType = "individual"

	// ItemCode identifica o acesso VIP no pedido
	ItemCode = "VIP_DISCORD"

	// SignatureHeader carrega o HMAC dos webhooks
	SignatureHeader = "X-Hub-Signature"
)

// ValidatePaymentMethod rejeita cobranças que não sejam PIX; webhooks de
// outros meios não liberam acesso.
func ValidatePaymentMethod(method string) error {
	if method == "" {
		return fmt.Errorf("método de pagamento não pode estar vazio")
	}
	if method != AllowedPaymentMethod {
		return fmt.Errorf("método de pagamento inválido: apenas '%s' é aceito, recebido '%s'", AllowedPaymentMethod, method)
	}
	return nil
}
