package auth

// TokenValidator validates a token string and returns the parsed claims.
// Middleware depends on this interface rather than a concrete claims type.
//
// The returned value is stored in the request context via authctx.Set and
// retrieved with authctx.Get[T].
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts an ordinary function to the TokenValidator
// interface.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// NewValidator creates a TokenValidator from a validation function. Useful
// for bridging the typed Service[T]:
//
//	validator := auth.NewValidator(svc.ValidatorFunc())
func NewValidator(fn func(string) (any, error)) TokenValidator {
	return TokenValidatorFunc(fn)
}
