package ports

// TokenCodec turns an action descriptor into an opaque, tamper-evident
// token safe to round-trip through an untrusted UI surface, and back.
type TokenCodec interface {
	Encode(action string) (string, error)
	// Decode returns the original action, domain.ErrMalformedToken for
	// tokens that do not decode, or domain.ErrBadSignature when the MAC
	// does not verify. A verification failure is never coerced into an
	// action.
	Decode(token string) (string, error)
}
