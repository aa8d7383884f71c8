package ports

import "context"

// LoginThrottle limits consecutive failed logins per account. A nil or
// unavailable throttle degrades open: login keeps working, only the
// brute-force brake is lost.
type LoginThrottle interface {
	// Blocked reports whether the account has exhausted its attempts.
	Blocked(ctx context.Context, email string) (bool, error)
	// RecordFailure counts one failed attempt inside the current window.
	RecordFailure(ctx context.Context, email string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}
