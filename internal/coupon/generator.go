package coupon

import (
	"crypto/rand"
	"fmt"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Generator produces coupon codes of the form <prefix> + 6 uppercase
// alphanumeric characters, e.g. TOYS-7QX2M9.
type Generator struct {
	prefix string
}

func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

func (g *Generator) Generate() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("coupon: failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return g.prefix + string(buf), nil
}
