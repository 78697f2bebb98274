package native

import "context"

// Surface shows host screens on behalf of the plugin.
type Surface interface {
	OpenSettings(ctx context.Context) error
	ShowPrivacyPolicy(ctx context.Context) error
}
