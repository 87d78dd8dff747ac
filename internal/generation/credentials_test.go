package generation

import (
	"errors"
	"testing"
)

func TestResolveCredentialServerKeyAlwaysWins(t *testing.T) {
	cred, err := ResolveCredential("server-key", "user-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Key != "server-key" || cred.Source != CredentialSourceServer {
		t.Fatalf("want server-key/server got %s/%s", cred.Key, cred.Source)
	}
}

func TestResolveCredentialUserKeyWhenNoServerKey(t *testing.T) {
	cred, err := ResolveCredential("", "user-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Key != "user-key" || cred.Source != CredentialSourceUser {
		t.Fatalf("want user-key/user got %s/%s", cred.Key, cred.Source)
	}
}

func TestResolveCredentialMissing(t *testing.T) {
	_, err := ResolveCredential("  ", "")
	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if ge.Code != CodeCredentialMissing {
		t.Fatalf("code: want=%s got=%s", CodeCredentialMissing, ge.Code)
	}
}

func TestResolveCredentialTrimsWhitespace(t *testing.T) {
	cred, err := ResolveCredential("", "  user-key \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Key != "user-key" {
		t.Fatalf("want trimmed key got %q", cred.Key)
	}
}
