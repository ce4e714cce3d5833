package model

import (
	"errors"
	"testing"
)

func TestLineItemLineTotal(t *testing.T) {
	li := LineItem{ProductID: 7, Name: "Widget", UnitPrice: 1000, Quantity: 5}
	if got := li.LineTotal(); got != 5000 {
		t.Errorf("LineTotal() = %d, want 5000", got)
	}
}

func TestNormalizePaymentMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PaymentMethod
		wantErr bool
	}{
		{"empty defaults to cash", "", PaymentCash, false},
		{"cash", "cash", PaymentCash, false},
		{"credit", "credit", PaymentCredit, false},
		{"qr", "qr", PaymentQR, false},
		{"wallet", "wallet", PaymentWallet, false},
		{"unknown", "cheque", "", true},
		{"wrong case", "Cash", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePaymentMethod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizePaymentMethod(%q) expected error", tt.input)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Error("error should wrap ErrInvalidInput")
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePaymentMethod(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePaymentMethod(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
