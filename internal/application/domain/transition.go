package domain

import "fmt"

// Action is one of the four lifecycle transitions a caller may request.
type Action string

const (
	ActionCancel  Action = "cancel"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReapply Action = "reapply"
)

// ActorRole identifies which side of the application an action belongs to.
type ActorRole string

const (
	RoleVolunteer    ActorRole = "volunteer"
	RoleOrganization ActorRole = "organization"
)

// ParseAction converts a raw string into an Action, rejecting unknown values
// at the boundary so the resolver below stays total.
func ParseAction(raw string) (Action, error) {
	action := Action(raw)
	switch action {
	case ActionCancel, ActionApprove, ActionReject, ActionReapply:
		return action, nil
	}
	return "", fmt.Errorf("unknown transition action %q", raw)
}

// TargetStatus maps an action to the status it produces. Pure and total over
// parsed actions.
func (a Action) TargetStatus() Status {
	switch a {
	case ActionCancel:
		return StatusCancelled
	case ActionApprove:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	default:
		return StatusPending
	}
}

// RequiredRole returns which actor may invoke the action: the volunteer who
// owns the application, or the organization that owns the targeted event.
func (a Action) RequiredRole() ActorRole {
	switch a {
	case ActionApprove, ActionReject:
		return RoleOrganization
	default:
		return RoleVolunteer
	}
}
