package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreatePaymentRequest{
		OrderID:  "  order_abc123  ",
		Currency: " INR ",
		Method:   " upi ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "order_abc123", req.OrderID)
	assert.Equal(t, "INR", req.Currency)
	assert.Equal(t, "upi", req.Method)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	reason := "customer <script>alert('x')</script> request"
	req := CreateRefundRequest{
		Amount: 1000,
		Reason: &reason,
	}
	SanitizeStruct(&req)

	assert.Contains(t, *req.Reason, "&lt;script&gt;")
	assert.NotContains(t, *req.Reason, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	url := "  https://example.com/webhook  "
	req := RegisterMerchantRequest{
		Email:      "bob@example.com",
		WebhookURL: &url,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "https://example.com/webhook", *req.WebhookURL)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RegisterMerchantRequest{
		Email:      "carol@example.com",
		WebhookURL: nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.WebhookURL)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"order_RvH8mK2xQ1",
		"pay_ABC-123",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"order 001",   // space
		"order<001>",  // angle brackets
		"order;DROP",  // semicolon
		"",            // empty
		"hello world", // space
		"order\n001",  // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestSanitizeStruct_OrderRequest(t *testing.T) {
	notes := "  gift wrap <b>please</b>  "
	req := CreateOrderRequest{
		Currency: " INR ",
		Notes:    &notes,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "INR", req.Currency)
	assert.Equal(t, "gift wrap &lt;b&gt;please&lt;/b&gt;", *req.Notes)
}
