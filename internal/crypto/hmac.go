package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC of the raw request body.
const SignatureHeader = "X-Signature"

// signatureHexLen is the length of a hex-encoded SHA-256 digest.
const signatureHexLen = sha256.Size * 2

// FailureReason says why a signature was rejected. It is for logs and
// metrics only and must never reach a response.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureNoSecret  FailureReason = "no_secret"
	FailureMissing   FailureReason = "missing"
	FailureMalformed FailureReason = "malformed"
	FailureMismatch  FailureReason = "mismatch"
)

// Verification is the result of checking a request signature.
type Verification struct {
	Valid   bool
	Failure FailureReason
}

// SignHMAC returns the lowercase hex HMAC-SHA256 of body under secret.
func SignHMAC(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks signature against the HMAC-SHA256 of the raw body
// bytes. The body must be exactly what came off the wire. The signature
// must be 64 lowercase hex characters; the digest comparison is constant
// time. An empty secret rejects everything.
func VerifyHMAC(body []byte, signature string, secret []byte) Verification {
	if len(secret) == 0 {
		return Verification{Failure: FailureNoSecret}
	}
	if signature == "" {
		return Verification{Failure: FailureMissing}
	}
	if !isLowerHex(signature) || len(signature) != signatureHexLen {
		return Verification{Failure: FailureMalformed}
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return Verification{Failure: FailureMalformed}
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return Verification{Failure: FailureMismatch}
	}
	return Verification{Valid: true}
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
