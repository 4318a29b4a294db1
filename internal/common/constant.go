package common

// AuthorizationHeaderName carries the bearer access token on vault requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// TokenType is reported to clients alongside issued access tokens.
const TokenType = "bearer"
