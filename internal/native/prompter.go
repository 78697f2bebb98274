package native

import (
	"context"

	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
)

// ConsentRequest lists the types the user has not yet decided on.
type ConsentRequest struct {
	Read  []health.DataType
	Write []health.DataType
}

// ConsentResponse carries the user's answers. A type missing from a map was left
// unanswered, e.g. because the prompt was dismissed.
type ConsentResponse struct {
	Read  map[health.DataType]store.Decision
	Write map[health.DataType]store.Decision
}

// Prompter asks the user for consent. Implementations must return once ctx is done.
type Prompter interface {
	Prompt(ctx context.Context, req ConsentRequest) (ConsentResponse, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, req ConsentRequest) (ConsentResponse, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(ctx context.Context, req ConsentRequest) (ConsentResponse, error) {
	return f(ctx, req)
}

// GrantAll answers every request with a grant.
var GrantAll Prompter = PrompterFunc(func(_ context.Context, req ConsentRequest) (ConsentResponse, error) {
	return Decide(req, func(health.DataType, health.Direction) (store.Decision, bool) {
		return store.DecisionGranted, true
	}), nil
})

// DenyAll answers every request with a denial.
var DenyAll Prompter = PrompterFunc(func(_ context.Context, req ConsentRequest) (ConsentResponse, error) {
	return Decide(req, func(health.DataType, health.Direction) (store.Decision, bool) {
		return store.DecisionDenied, true
	}), nil
})

// Decide builds a response by asking decide about each requested type.
// Types for which decide returns false stay unanswered.
func Decide(req ConsentRequest, decide func(health.DataType, health.Direction) (store.Decision, bool)) ConsentResponse {
	resp := ConsentResponse{
		Read:  make(map[health.DataType]store.Decision, len(req.Read)),
		Write: make(map[health.DataType]store.Decision, len(req.Write)),
	}
	for _, t := range req.Read {
		if d, ok := decide(t, health.DirectionRead); ok {
			resp.Read[t] = d
		}
	}
	for _, t := range req.Write {
		if d, ok := decide(t, health.DirectionWrite); ok {
			resp.Write[t] = d
		}
	}
	return resp
}
