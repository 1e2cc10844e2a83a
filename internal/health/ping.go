package health

import "context"

// HealthPinger is the optional fast probe a store backend can expose.
// A nil return means the backend can serve requests right now.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
