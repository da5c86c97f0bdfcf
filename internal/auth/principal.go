package auth

import "context"

// Principal is the authenticated identity attached to a request after
// the bearer token has been verified and resolved against storage.
// Handlers type-switch on the concrete variant instead of comparing
// role strings.
type Principal interface {
	principal()
}

type Admin struct {
	ID    string
	Email string
}

type Customer struct {
	ID    string
	Name  string
	Email string
}

func (Admin) principal()    {}
func (Customer) principal() {}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
