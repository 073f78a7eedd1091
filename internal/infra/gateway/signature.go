package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func sign(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

func verifyHex(secret, signature string, parts ...[]byte) error {
	if secret == "" {
		return ErrNotConfigured
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || !hmac.Equal(got, sign(secret, parts...)) {
		return ErrInvalidSignature
	}
	return nil
}

func verifyBase64(secret, signature string, body []byte) error {
	if secret == "" {
		return ErrNotConfigured
	}
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || !hmac.Equal(got, sign(secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// checkTimestamp parses unix seconds and rejects values outside the tolerance.
func checkTimestamp(raw string, now time.Time) error {
	ts, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}
	return nil
}
