package pagarme

import (
	"testing"
)

func TestValidatePaymentMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		wantErr bool
	}{
		{
			name:    "pix válido",
			method:  "pix",
			wantErr: false,
		},
		{
			name:    "credit_card inválido",
			method:  "credit_card",
			wantErr: true,
		},
		{
			name:    "boleto inválido",
			method:  "boleto",
			wantErr: true,
		},
		{
			name:    "voucher inválido",
			method:  "voucher",
			wantErr: true,
		},
		{
			name:    "vazio inválido",
			method:  "",
			wantErr: true,
		},
		{
			name:    "método desconhecido inválido",
			method:  "unknown",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaymentMethod(tt.method)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaymentMethod() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  *PhoneData
	}{
		{
			name:  "celular com 9 dígitos",
			phone: "21988887777",
			want:  &PhoneData{CountryCode: "55", AreaCode: "21", Number: "988887777"},
		},
		{
			name:  "fixo com 8 dígitos",
			phone: "1133334444",
			want:  &PhoneData{CountryCode: "55", AreaCode: "11", Number: "33334444"},
		},
		{
			name:  "DDD inválido",
			phone: "0099999999",
			want:  nil,
		},
		{
			name:  "vazio",
			phone: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPhone(tt.phone)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("SplitPhone(%q) = %+v, want %+v", tt.phone, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("SplitPhone(%q) = %+v, want %+v", tt.phone, *got, *tt.want)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name     string
		areaCode string
		number   string
		wantErr  bool
	}{
		{name: "válido", areaCode: "11", number: "999999999", wantErr: false},
		{name: "DDD curto", areaCode: "1", number: "999999999", wantErr: true},
		{name: "DDD abaixo de 11", areaCode: "10", number: "99999999", wantErr: true},
		{name: "número curto", areaCode: "11", number: "9999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.areaCode, tt.number)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhone() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
