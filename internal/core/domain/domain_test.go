package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPayment_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"success", PaymentStatusSuccess, true},
		{"failed", PaymentStatusFailed, true},
		{"partially_refunded", PaymentStatusPartiallyRefunded, true},
		{"refunded", PaymentStatusRefunded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status}
			assert.Equal(t, tt.want, p.IsTerminal())
		})
	}
}

func TestPayment_IsRefundable(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"success", PaymentStatusSuccess, true},
		{"failed", PaymentStatusFailed, false},
		{"partially_refunded", PaymentStatusPartiallyRefunded, true},
		{"refunded", PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.status}
			assert.Equal(t, tt.want, p.IsRefundable())
		})
	}
}

func TestMerchant_HasWebhook(t *testing.T) {
	url := "https://merchant.example.com/hooks"
	empty := ""

	assert.False(t, (&Merchant{}).HasWebhook())
	assert.False(t, (&Merchant{WebhookURL: &empty}).HasWebhook())
	assert.True(t, (&Merchant{WebhookURL: &url}).HasWebhook())
}

func TestIdempotencyRecord_Expired(t *testing.T) {
	now := time.Now()
	rec := &IdempotencyRecord{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, rec.Expired(now))
	assert.True(t, rec.Expired(now.Add(2*time.Hour)))
}

func TestBuildIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildIdempotencyKey(id, "retry-abc")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000:retry-abc", key)
}

func TestNewID(t *testing.T) {
	id := NewID(PaymentIDPrefix)
	assert.True(t, strings.HasPrefix(id, "pay_"))
	assert.Len(t, id, len(PaymentIDPrefix)+16)

	other := NewID(PaymentIDPrefix)
	assert.NotEqual(t, id, other)
}
