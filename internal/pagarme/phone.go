package pagarme

import (
	"fmt"
	"regexp"
	"strconv"
)

// PhoneData representa telefone estruturado para envio ao gateway de pagamento
type PhoneData struct {
	CountryCode string `json:"country_code"` // "55" para Brasil
	AreaCode    string `json:"area_code"`    // DDD (2 dígitos)
	Number      string `json:"number"`       // Número (8 ou 9 dígitos)
}

var nonDigit = regexp.MustCompile(`[^\d]`)

// sanitizePhone remove caracteres não numéricos de um telefone
func sanitizePhone(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}

// ValidatePhone valida telefone brasileiro já separado em DDD e número
func ValidatePhone(areaCode, number string) error {
	ac := sanitizePhone(areaCode)
	num := sanitizePhone(number)

	if len(ac) != 2 {
		return fmt.Errorf("DDD deve ter 2 dígitos")
	}
	ddd, err := strconv.Atoi(ac)
	if err != nil || ddd < 11 || ddd > 99 {
		return fmt.Errorf("DDD inválido: deve estar entre 11 e 99")
	}
	if n := len(num); n != 8 && n != 9 {
		return fmt.Errorf("número deve ter 8 ou 9 dígitos (recebido %d)", n)
	}
	return nil
}

// SplitPhone separa um telefone normalizado (DDD + número, 10 ou 11 dígitos)
// no formato do Pagar.me. Retorna nil quando o telefone não é válido, já que
// o telefone é opcional no pedido.
func SplitPhone(phone string) *PhoneData {
	digits := sanitizePhone(phone)
	if len(digits) < 10 {
		return nil
	}
	p := &PhoneData{CountryCode: "55", AreaCode: digits[:2], Number: digits[2:]}
	if ValidatePhone(p.AreaCode, p.Number) != nil {
		return nil
	}
	return p
}
