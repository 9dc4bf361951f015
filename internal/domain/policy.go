package domain

// Action names a capability checked by Can.
type Action string

const (
	ActionCreateEvent          Action = "event:create"
	ActionManageEvent          Action = "event:manage"
	ActionManageAttendance     Action = "registration:attendance"
	ActionViewRegistration     Action = "registration:view"
	ActionViewUserRegistration Action = "user:registrations"
	ActionViewDashboard        Action = "dashboard:view"
	ActionAssignRole           Action = "user:assign-role"
)

// Can reports whether actor may perform action on a resource owned by any of
// ownerIDs. Admins may do everything.
//
//	event:create              organizer
//	event:manage              organizer who owns the event
//	registration:attendance   organizer who owns the event
//	registration:view         registrant or event organizer
//	user:registrations        the user themself
//	dashboard:view            organizer
//	user:assign-role          admin only
func Can(action Action, actor Principal, ownerIDs ...string) bool {
	if actor.UserID == "" {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	switch action {
	case ActionCreateEvent, ActionViewDashboard:
		return actor.HasRole(RoleOrganizer)
	case ActionManageEvent, ActionManageAttendance:
		return actor.HasRole(RoleOrganizer) && ownedBy(actor, ownerIDs)
	case ActionViewRegistration, ActionViewUserRegistration:
		return ownedBy(actor, ownerIDs)
	default:
		return false
	}
}

// Authorize is Can returning ErrForbidden on deny.
func Authorize(action Action, actor Principal, ownerIDs ...string) error {
	if !Can(action, actor, ownerIDs...) {
		return ErrForbidden
	}
	return nil
}

func ownedBy(actor Principal, ownerIDs []string) bool {
	for _, id := range ownerIDs {
		if id != "" && id == actor.UserID {
			return true
		}
	}
	return false
}
