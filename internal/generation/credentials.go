package generation

import "strings"

type CredentialSource string

const (
	CredentialSourceServer CredentialSource = "server"
	CredentialSourceUser   CredentialSource = "user"
)

type Credential struct {
	Key    string
	Source CredentialSource
}

// ResolveCredential picks the key a request runs with. Deterministic and
// side-effect-free: a configured server-managed key wins unconditionally; a
// user-supplied (BYOK) key is consulted only when no server key exists.
func ResolveCredential(serverKey, userKey string) (Credential, error) {
	serverKey = strings.TrimSpace(serverKey)
	userKey = strings.TrimSpace(userKey)

	if serverKey != "" {
		return Credential{Key: serverKey, Source: CredentialSourceServer}, nil
	}
	if userKey != "" {
		return Credential{Key: userKey, Source: CredentialSourceUser}, nil
	}
	return Credential{}, NewError(CodeCredentialMissing, "", "no server-managed or user-supplied key configured")
}
