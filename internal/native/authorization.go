package native

import (
	"context"
	"fmt"

	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
)

type grantSet map[health.Direction]map[health.DataType]store.Decision

func newGrantSet(grants []store.Grant) grantSet {
	set := grantSet{
		health.DirectionRead:  make(map[health.DataType]store.Decision),
		health.DirectionWrite: make(map[health.DataType]store.Decision),
	}
	for _, g := range grants {
		if dir, ok := set[g.Direction]; ok {
			dir[g.DataType] = g.Decision
		}
	}
	return set
}

func (s grantSet) decision(t health.DataType, dir health.Direction) (store.Decision, bool) {
	d, ok := s[dir][t]
	return d, ok
}

func (s grantSet) anyGranted(dir health.Direction) bool {
	for _, d := range s[dir] {
		if d == store.DecisionGranted {
			return true
		}
	}
	return false
}

func (s grantSet) undetermined(types []health.DataType, dir health.Direction) []health.DataType {
	out := make([]health.DataType, 0, len(types))
	for _, t := range types {
		if _, ok := s.decision(t, dir); !ok {
			out = append(out, t)
		}
	}
	return out
}

// status reports the decisions for exactly the requested types.
func (s grantSet) status(opts health.AuthorizationOptions) health.AuthorizationStatus {
	status := health.NewAuthorizationStatus()
	for _, t := range opts.Read {
		switch d, _ := s.decision(t, health.DirectionRead); d {
		case store.DecisionGranted:
			status.ReadAuthorized = append(status.ReadAuthorized, t)
		case store.DecisionDenied:
			status.ReadDenied = append(status.ReadDenied, t)
		}
	}
	for _, t := range opts.Write {
		switch d, _ := s.decision(t, health.DirectionWrite); d {
		case store.DecisionGranted:
			status.WriteAuthorized = append(status.WriteAuthorized, t)
		case store.DecisionDenied:
			status.WriteDenied = append(status.WriteDenied, t)
		}
	}
	return status
}

func (p *Plugin) grants(ctx context.Context, op string) (grantSet, error) {
	grants, err := p.store.Grants(ctx, p.owner)
	if err != nil {
		return nil, p.platformFailure(op, err)
	}
	return newGrantSet(grants), nil
}

func (p *Plugin) requireGrant(ctx context.Context, op string, t health.DataType, dir health.Direction) error {
	set, err := p.grants(ctx, op)
	if err != nil {
		return err
	}
	if d, _ := set.decision(t, dir); d != store.DecisionGranted {
		return health.Unauthorized(op, fmt.Sprintf("%s permission has not been granted for %q", dir, t))
	}
	return nil
}

// CheckAuthorization reports persisted decisions without prompting.
func (p *Plugin) CheckAuthorization(ctx context.Context, opts health.AuthorizationOptions) (health.AuthorizationStatus, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return health.AuthorizationStatus{}, err
	}
	if normalized.Empty() {
		return health.NewAuthorizationStatus(), nil
	}
	set, err := p.grants(ctx, "checkAuthorization")
	if err != nil {
		return health.AuthorizationStatus{}, err
	}
	return set.status(normalized), nil
}

// RequestAuthorization prompts for the requested types that have no decision yet,
// persists the answers and reports the resulting status.
func (p *Plugin) RequestAuthorization(ctx context.Context, opts health.AuthorizationOptions) (health.AuthorizationStatus, error) {
	const op = "requestAuthorization"
	normalized, err := opts.Normalize()
	if err != nil {
		return health.AuthorizationStatus{}, err
	}
	if normalized.Empty() {
		return health.NewAuthorizationStatus(), nil
	}
	set, err := p.grants(ctx, op)
	if err != nil {
		return health.AuthorizationStatus{}, err
	}

	req := ConsentRequest{
		Read:  set.undetermined(normalized.Read, health.DirectionRead),
		Write: set.undetermined(normalized.Write, health.DirectionWrite),
	}
	if p.prompter == nil || (len(req.Read) == 0 && len(req.Write) == 0) {
		return set.status(normalized), nil
	}

	resp, err := p.prompter.Prompt(ctx, req)
	if err != nil {
		return health.AuthorizationStatus{}, p.platformFailure(op, err)
	}
	if err := ctx.Err(); err != nil {
		return health.AuthorizationStatus{}, p.platformFailure(op, err)
	}

	now := p.now()
	updates := make([]store.Grant, 0, len(req.Read)+len(req.Write))
	collect := func(types []health.DataType, answers map[health.DataType]store.Decision, dir health.Direction) {
		for _, t := range types {
			d, ok := answers[t]
			if !ok || (d != store.DecisionGranted && d != store.DecisionDenied) {
				continue
			}
			updates = append(updates, store.Grant{DataType: t, Direction: dir, Decision: d, UpdatedAt: now})
			set[dir][t] = d
		}
	}
	collect(req.Read, resp.Read, health.DirectionRead)
	collect(req.Write, resp.Write, health.DirectionWrite)

	if len(updates) > 0 {
		if err := p.store.PutGrants(ctx, p.owner, updates); err != nil {
			return health.AuthorizationStatus{}, p.platformFailure(op, err)
		}
	}
	return set.status(normalized), nil
}
