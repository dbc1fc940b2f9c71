package domain

import "crypto/rand"

// Entity ID prefixes, matching the public API surface.
const (
	OrderIDPrefix   = "order_"
	PaymentIDPrefix = "pay_"
	RefundIDPrefix  = "rfnd_"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const idLength = 16

// NewID generates a prefixed random identifier, e.g. "pay_NXhj67fGH2jk9mPq".
func NewID(prefix string) string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return prefix + string(buf)
}
