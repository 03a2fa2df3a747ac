package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainModule = "modopt/module/v1"
	DomainConfig = "modopt/config/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a module.
// Two modules have the same fingerprint iff their canonical JSON is identical,
// so a pipeline run is deterministic iff it maps equal fingerprints to equal
// fingerprints.
func Fingerprint(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

// ConfigHash computes the identity of an arbitrary configuration value.
// Used by the run store to group runs that used the same settings.
func ConfigHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the module is known to marshal.
func MustFingerprint(m *Module) string {
	fp, err := Fingerprint(m)
	if err != nil {
		panic(err)
	}
	return fp
}
