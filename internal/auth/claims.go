package auth

import "github.com/golang-jwt/jwt/v5"

// WebhookClaims are the claims a JSON voice vendor signs each webhook with.
// PayloadHash binds the token to one request body: hex(sha256(body)).
// Subject carries the vendor account id.
type WebhookClaims struct {
	jwt.RegisteredClaims

	PayloadHash string `json:"payload_hash"`
}
