package consolesdk

import "context"

// Authorizer provides the bearer token attached to outgoing requests.
// It returns false when there is no credential to send.
type Authorizer interface {
	Authorization(ctx context.Context) (string, bool)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context) (string, bool)

func (f AuthorizerFunc) Authorization(ctx context.Context) (string, bool) {
	return f(ctx)
}

// StaticAuthorizer always returns the same token. An empty token means no
// credential.
type StaticAuthorizer string

func (s StaticAuthorizer) Authorization(context.Context) (string, bool) {
	return string(s), s != ""
}
