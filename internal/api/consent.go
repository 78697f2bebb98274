package api

import (
	"context"
	"fmt"

	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/native"
	"example.com/healthbridge/internal/store"
)

// ConsentPrompter picks the prompter used for claims under the configured policy.
//
// Under the scopes policy a type is granted when the token carries its consent scope
// (see auth.ConsentScope) and left undetermined otherwise, so a later token can still grant it.
func ConsentPrompter(policy string, claims *auth.Claims) (native.Prompter, error) {
	switch policy {
	case config.ConsentGrant:
		return native.GrantAll, nil
	case config.ConsentDeny:
		return native.DenyAll, nil
	case config.ConsentScopes:
		return scopePrompter(claims), nil
	default:
		return nil, fmt.Errorf("api: unknown consent policy %q", policy)
	}
}

func scopePrompter(claims *auth.Claims) native.Prompter {
	return native.PrompterFunc(func(_ context.Context, req native.ConsentRequest) (native.ConsentResponse, error) {
		return native.Decide(req, func(t health.DataType, dir health.Direction) (store.Decision, bool) {
			if claims.HasScope(auth.ConsentScope(string(t), string(dir))) {
				return store.DecisionGranted, true
			}
			return "", false
		}), nil
	})
}
