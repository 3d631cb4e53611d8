package config

import (
	"os"
	"strings"
)

// CorrectionReasonRequired makes the free-text reason mandatory on mismatch
// correction submissions. The upstream sheet treats reason as soft-required;
// default keeps that behavior.
//
// Set via env:
// - CORRECTION_REASON_REQUIRED=true
func CorrectionReasonRequired() bool {
	return boolEnv("CORRECTION_REASON_REQUIRED")
}

// AllowPlaintextPasswords permits a constant-time plain compare when the
// stored credential in the user directory sheet is not a bcrypt hash.
// The login sheet predates hashing; disable once all rows are migrated.
//
// Set via env:
// - ALLOW_PLAINTEXT_PASSWORDS=true
func AllowPlaintextPasswords() bool {
	return boolEnv("ALLOW_PLAINTEXT_PASSWORDS")
}

func boolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
