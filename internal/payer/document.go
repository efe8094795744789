package payer

import (
	"fmt"
	"regexp"
)

var nonDigit = regexp.MustCompile(`[^\d]`)

// SanitizeDocument remove todos os caracteres não numéricos de um documento (CPF/CNPJ).
func SanitizeDocument(doc string) string {
	return nonDigit.ReplaceAllString(doc, "")
}

// ValidateCPF checks length and both check digits of a CPF. Sequences of a
// single repeated digit pass the checksum but are not issued, so they are
// rejected too.
func ValidateCPF(cpf string) error {
	digits := SanitizeDocument(cpf)
	if len(digits) != 11 {
		return fmt.Errorf("CPF inválido: deve conter 11 dígitos (recebido %d)", len(digits))
	}

	allEqual := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return fmt.Errorf("CPF inválido: dígitos repetidos")
	}

	d := make([]int, 11)
	for i := range digits {
		d[i] = int(digits[i] - '0')
	}
	if cpfCheckDigit(d[:9], 10) != d[9] || cpfCheckDigit(d[:10], 11) != d[10] {
		return fmt.Errorf("CPF inválido: dígito verificador não confere")
	}
	return nil
}

func cpfCheckDigit(digits []int, weight int) int {
	sum := 0
	for _, n := range digits {
		sum += n * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
