package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"crm-telephony/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrPayloadMismatch = errors.New("auth: payload hash mismatch")

// WebhookVerifier checks HS256-signed webhook tokens issued by a JSON voice vendor.
type WebhookVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewWebhookVerifier(cfg config.JSONVoiceConfig) (*WebhookVerifier, error) {
	if cfg.SigningSecret == "" {
		return nil, errors.New("JSONVOICE_SIGNING_SECRET is required")
	}
	return &WebhookVerifier{
		secret: []byte(cfg.SigningSecret),
		issuer: cfg.Issuer,
		ttl:    5 * time.Minute,
	}, nil
}

/* ===================== VERIFY ===================== */

func (v *WebhookVerifier) Verify(tokenString string, body []byte, now time.Time) (WebhookClaims, error) {
	var claims WebhookClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return WebhookClaims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return WebhookClaims{}, err
	}

	want := PayloadHash(body)
	if subtle.ConstantTimeCompare([]byte(claims.PayloadHash), []byte(want)) != 1 {
		return WebhookClaims{}, ErrPayloadMismatch
	}
	return claims, nil
}

/* ===================== SIGN ===================== */

// Sign issues a token for body the way the vendor does. Used by tests and local tooling.
func (v *WebhookVerifier) Sign(now time.Time, subject string, body []byte) (string, error) {
	claims := WebhookClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			ID:        uuid.NewString(),
		},
		PayloadHash: PayloadHash(body),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func PayloadHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
