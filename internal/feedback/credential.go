package feedback

const (
	CredentialProvided    = "Provided"
	CredentialNotProvided = "Not Provided"
	redacted              = "[redacted]"
)

// Credential wraps a user-supplied API key. It never prints its value.
type Credential struct {
	secret string
}

func NewCredential(secret string) Credential {
	return Credential{secret: secret}
}

// Reveal returns the raw key. Only the image-edit collaborator should call it.
func (c Credential) Reveal() string {
	return c.secret
}

func (c Credential) String() string {
	return redacted
}

func (c Credential) GoString() string {
	return redacted
}

// PresenceIndicator maps an optional credential to the value that gets persisted.
func PresenceIndicator(c Optional[Credential]) string {
	if cred, ok := c.Get(); ok && cred.secret != "" {
		return CredentialProvided
	}
	return CredentialNotProvided
}
