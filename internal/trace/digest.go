package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTrace is the domain prefix for trace digests. The version suffix
// enables future algorithm migration without colliding with old digests.
const DomainTrace = "soloist/trace/v1"

// Digest computes the content-addressed digest of a trace: SHA-256 over the
// domain prefix, a null separator, and the canonical JSON rendering.
//
// Raw goroutine IDs vary run to run; normalize the events first when the
// digest must be stable across runs (see NormalizeGoroutines).
func Digest(events []Event) (string, error) {
	canonical, err := MarshalCanonical(events)
	if err != nil {
		return "", fmt.Errorf("trace digest: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
