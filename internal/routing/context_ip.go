package routing

import "context"

type senderIPKey struct{}

// WithClientIP attaches the webhook sender's address for the audit log.
// Empty values are not stored.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, senderIPKey{}, ip)
}

// ClientIPFromContext returns "" when no address was attached.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(senderIPKey{}).(string)
	return ip
}
