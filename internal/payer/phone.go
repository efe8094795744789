package payer

// NormalizePhone keeps digits only, trims to the last 11 (DDD + number,
// dropping a leading country code) and left-pads to 10. Empty stays empty.
func NormalizePhone(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	if len(digits) > 11 {
		digits = digits[len(digits)-11:]
	}
	for len(digits) < 10 {
		digits = "0" + digits
	}
	return digits
}
