// Package license implements the license key registry and the activation
// flow that redeems keys against user accounts.
package license

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"server/internal/domain"
)

const (
	keyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength  = 16
)

var planPrefixes = map[domain.Plan]string{
	domain.PlanClassic: "CLASSI",
	domain.PlanPro:     "PRO",
}

// GenerateKey produces a key of the form <PREFIX>-<16 chars from [A-Z0-9]>
// for a paid plan, drawing from crypto/rand. Uniqueness against the registry
// is the caller's responsibility.
func GenerateKey(plan domain.Plan) (string, error) {
	prefix, ok := planPrefixes[plan]
	if !ok {
		return "", fmt.Errorf("%w: plan %q has no license keys", domain.ErrValidation, plan)
	}

	buf := make([]byte, keyLength)
	max := big.NewInt(int64(len(keyCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate key: %w", err)
		}
		buf[i] = keyCharset[n.Int64()]
	}

	return prefix + "-" + string(buf), nil
}

// KeyPrefix returns the key prefix for a paid plan, or "" for plans that
// have no license keys.
func KeyPrefix(plan domain.Plan) string {
	return planPrefixes[plan]
}
