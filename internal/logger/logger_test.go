package logger

import "testing"

func TestSanitizeRedactsSecretKeys(t *testing.T) {
	tests := []struct {
		key    string
		redact bool
	}{
		{"api_key", true},
		{"Authorization", true},
		{"user_token", true},
		{"credential_source", true},
		{"segment_id", false},
		{"provider", false},
	}
	for _, tc := range tests {
		got := sanitizeKVs([]interface{}{tc.key, "plaintext"})
		redacted := got[1] == "[REDACTED]"
		if redacted != tc.redact {
			t.Fatalf("key %q: want redact=%v got value %v", tc.key, tc.redact, got[1])
		}
	}
}

// Env helpers log a found value under the variable's own name, so a
// secret-looking variable name must trigger redaction.
func TestSanitizeRedactsSecretEnvVarNames(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"PROVIDER_FLUX_API_KEY", "sk-live-1234",
		"S3_SECRET_ACCESS_KEY", "aws-secret",
		"POSTGRES_HOST", "localhost",
	})
	if kv[1] != "[REDACTED]" {
		t.Fatalf("PROVIDER_FLUX_API_KEY value leaked: %v", kv[1])
	}
	if kv[3] != "[REDACTED]" {
		t.Fatalf("S3_SECRET_ACCESS_KEY value leaked: %v", kv[3])
	}
	if kv[5] != "localhost" {
		t.Fatalf("non-secret value mangled: %v", kv[5])
	}
}
