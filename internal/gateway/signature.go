package gateway

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// VerifyHMAC checks a hex HMAC signature header. The header may carry an
// algorithm prefix ("sha1=…", "sha256=…"); without one SHA-256 is assumed.
func VerifyHMAC(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}

	hashFunc := sha256.New
	if algo, rest, ok := strings.Cut(sig, "="); ok {
		switch strings.ToLower(algo) {
		case "sha1":
			hashFunc = sha1.New
		case "sha256":
		default:
			return false
		}
		sig = rest
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	return verifyHMAC(payload, decoded, []byte(secret), hashFunc)
}

// SignHMAC produces a "sha256=<hex>" header value; tests and the CLI use it.
func SignHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}
