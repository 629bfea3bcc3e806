// Package role resolves which capability a member is operating under for the
// current session. Dual-role members go through an explicit selection state
// machine instead of ad hoc modal state.
package role

import (
	"context"

	"engagement-coordinator/internal/common/errors"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/models"
	"engagement-coordinator/internal/session"
)

// State of the resolution machine.
type State string

const (
	StateUnresolved        State = "UNRESOLVED"
	StateAwaitingSelection State = "AWAITING_SELECTION"
	StateResolved          State = "RESOLVED"
)

// Signal tells the caller what to present next when resolution did not land
// on a role.
type Signal string

const (
	SignalNone Signal = ""

	// SignalSelectionRequired: the member holds both roles and no selection
	// exists for this session yet.
	SignalSelectionRequired Signal = "RoleSelectionRequired"

	// SignalNoEligibleRole: the member holds neither role; present a
	// profile-creation affordance and do not proceed to either dashboard.
	SignalNoEligibleRole Signal = "NoEligibleRole"

	// SignalProfileRequired: the active role is FREELANCER but onboarding is
	// incomplete. Distinct from NoEligibleRole.
	SignalProfileRequired Signal = "ProfileRequired"
)

const selectionKey = "active-role"

// Resolution is the outcome of a Resolve call. Role is only meaningful when
// State is RESOLVED and Signal is empty.
type Resolution struct {
	State  State       `json:"state"`
	Role   models.Role `json:"role,omitempty"`
	Signal Signal      `json:"signal,omitempty"`
}

// Resolver determines the active role for a session. It is the only reader
// and writer of the session's role selection; dashboards load only after
// resolution completes.
type Resolver struct {
	store    session.Store
	profiles models.ProfileGateway
	logger   logger.Logger
}

func NewResolver(store session.Store, profiles models.ProfileGateway, log logger.Logger) *Resolver {
	return &Resolver{
		store:    store,
		profiles: profiles,
		logger:   log.WithFields(map[string]interface{}{"component": "role-resolver"}),
	}
}

// Resolve determines the member's active role for the given session.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, member *models.Member) (Resolution, error) {
	holdsPM := member.HasRole(models.RolePM)
	holdsFreelancer := member.HasRole(models.RoleFreelancer)

	switch {
	case !holdsPM && !holdsFreelancer:
		return Resolution{State: StateUnresolved, Signal: SignalNoEligibleRole}, nil

	case holdsPM && !holdsFreelancer:
		return r.finish(ctx, models.RolePM)

	case holdsFreelancer && !holdsPM:
		return r.finish(ctx, models.RoleFreelancer)
	}

	// Both roles: reuse a prior selection for this session if one exists.
	stored, ok, err := r.store.Get(ctx, sessionID, selectionKey)
	if err != nil {
		return Resolution{State: StateUnresolved}, err
	}
	if !ok {
		return Resolution{State: StateAwaitingSelection, Signal: SignalSelectionRequired}, nil
	}

	selected := models.Role(stored)
	if !selected.Valid() {
		r.logger.Warn("discarding invalid stored role selection", map[string]interface{}{
			"sessionId": sessionID,
			"stored":    stored,
		})
		if err := r.store.Clear(ctx, sessionID); err != nil {
			return Resolution{State: StateUnresolved}, err
		}
		return Resolution{State: StateAwaitingSelection, Signal: SignalSelectionRequired}, nil
	}

	return r.finish(ctx, selected)
}

// Select persists the member's choice for the remainder of the session.
// Selection is write-once: a conflicting second selection is refused so a
// dashboard loaded under one role cannot silently flip to the other.
func (r *Resolver) Select(ctx context.Context, sessionID string, member *models.Member, role models.Role) (Resolution, error) {
	if !role.Valid() {
		return Resolution{State: StateAwaitingSelection}, errors.NewValidationError("unknown role: " + string(role))
	}
	if !member.HasRole(role) {
		return Resolution{State: StateAwaitingSelection}, errors.NewRoleMismatchError("select-role", string(role), "none")
	}

	stored, ok, err := r.store.Get(ctx, sessionID, selectionKey)
	if err != nil {
		return Resolution{State: StateAwaitingSelection}, err
	}
	if ok && stored != string(role) {
		return Resolution{State: StateResolved, Role: models.Role(stored)},
			errors.NewValidationError("role already selected for this session: " + stored)
	}

	if !ok {
		if err := r.store.Set(ctx, sessionID, selectionKey, string(role)); err != nil {
			return Resolution{State: StateAwaitingSelection}, err
		}
		r.logger.Info("role selected", map[string]interface{}{
			"sessionId": sessionID,
			"memberId":  member.ID,
			"role":      role,
		})
	}

	return r.finish(ctx, role)
}

// finish applies the freelancer onboarding check before declaring the role
// resolved.
func (r *Resolver) finish(ctx context.Context, role models.Role) (Resolution, error) {
	if role == models.RoleFreelancer {
		if _, err := r.profiles.OwnProfile(ctx); err != nil {
			if errors.IsNotFound(err) {
				return Resolution{State: StateResolved, Role: role, Signal: SignalProfileRequired}, nil
			}
			return Resolution{State: StateUnresolved}, err
		}
	}
	return Resolution{State: StateResolved, Role: role}, nil
}
