/*
Package consolesdk provides a client for the two backends behind the operator
console: the auth service (token issuance) and the sales service (user
accounts and health checks).

# Backends

A Client holds one base URL per backend:

	client := consolesdk.NewClient("http://localhost:6000/v1/auth", "http://localhost:3000/v1")

	// Exchange operator credentials for a bearer token
	token, err := client.Login(ctx, "alice@example.com", "secret123")

	// Plain CRUD against the sales service
	users, err := client.ListUsers(ctx)

# Authorization

The client never stores a token itself. Every request except Login asks the
configured Authorizer for the current credential and, when one is returned,
sends it as "Authorization: Bearer <token>" on either backend:

	client.Authorizer = consolesdk.StaticAuthorizer("abc")

Clearing the credential is done by the Authorizer owner (normally the console
session store) and takes effect on the next request.

# Unauthorized Responses

OnUnauthorized is invoked for every 401 received on an authenticated call,
regardless of backend, before the call returns an *UnauthorizedError. It
receives the token the call carried, so a late 401 for a replaced token can
be told apart from one for the current token:

	client.OnUnauthorized = func(ctx context.Context, token string) {
		sessions.HandleUnauthorized(ctx, token)
	}

A 401 from Login is a credential failure and is reported as *AuthError
without invoking the hook.

# Error Handling

  - AuthError: login rejected or the token response was malformed
  - UnauthorizedError: 401 on an authenticated call
  - APIError: any other non-2xx status, with the backend's code and field errors
  - NetworkError: the request never produced a response

No call is retried.

# Thread Safety

A Client is safe for concurrent use once configured. Do not modify its fields
while requests are in flight.
*/
package consolesdk
