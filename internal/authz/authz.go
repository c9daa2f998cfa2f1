// Package authz renders access decisions for every class-scoped and
// relationship operation. Decisions are pure: every ownership and
// membership fact is fetched by the caller beforehand and passed in, so
// one rule table governs all resource types and stays unit-testable
// without a database.
package authz

import "github.com/edulink/edulink-api/internal/models"

// Action enumerates the guarded operations.
type Action string

const (
	ActionCreateClass   Action = "class.create"
	ActionReadClass     Action = "class.read"
	ActionUpdateClass   Action = "class.update"
	ActionDeleteClass   Action = "class.delete"
	ActionReadRoster    Action = "class.roster"
	ActionJoinClass     Action = "class.join"
	ActionCreateContent Action = "content.create"
	ActionReadContent   Action = "content.read"
	ActionSubmitWork    Action = "content.submit"
	ActionLinkChild     Action = "parent.link"
	ActionReadChildren  Action = "parent.children"
	ActionSendMessage   Action = "message.send"
	ActionReadMessages  Action = "message.read"
)

// Reason explains a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonWrongRole       Reason = "wrong_role"
	ReasonNotOwner        Reason = "not_owner"
	ReasonNotFound        Reason = "not_found"
	ReasonConflict        Reason = "conflict"
)

// Caller identifies the requesting user.
type Caller struct {
	UserID string
	Role   models.UserRole
}

// Facts carries the pre-fetched relationship state a decision depends
// on. Only the fields relevant to the action need to be populated.
type Facts struct {
	// Class-scoped actions.
	ClassExists    bool
	ClassTeacherID string
	Enrolled       bool

	// Code redemption.
	AlreadyEnrolled bool
	StudentExists   bool
	AlreadyLinked   bool

	// Messaging.
	SenderID   string
	ReceiverID string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// Authorize applies the rule table for the action. Rules are checked in
// priority order; the first matching rule governs. The function has no
// side effects and identical inputs always yield identical decisions.
func Authorize(caller Caller, action Action, facts Facts) Decision {
	if caller.UserID == "" || !caller.Role.Valid() {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionCreateClass:
		if caller.Role != models.RoleTeacher {
			return deny(ReasonWrongRole)
		}
		return allow()

	case ActionUpdateClass, ActionDeleteClass, ActionReadRoster:
		return ownerOnly(caller, facts)

	case ActionCreateContent:
		return ownerOnly(caller, facts)

	case ActionReadClass, ActionReadContent:
		return ownerOrEnrolled(caller, facts)

	case ActionJoinClass:
		if caller.Role != models.RoleStudent {
			return deny(ReasonWrongRole)
		}
		if !facts.ClassExists {
			return deny(ReasonNotFound)
		}
		if facts.AlreadyEnrolled {
			return deny(ReasonConflict)
		}
		return allow()

	case ActionSubmitWork:
		if caller.Role != models.RoleStudent {
			return deny(ReasonWrongRole)
		}
		if !facts.ClassExists {
			return deny(ReasonNotFound)
		}
		if !facts.Enrolled {
			return deny(ReasonNotOwner)
		}
		return allow()

	case ActionLinkChild:
		if caller.Role != models.RoleParent {
			return deny(ReasonWrongRole)
		}
		if !facts.StudentExists {
			return deny(ReasonNotFound)
		}
		if facts.AlreadyLinked {
			return deny(ReasonConflict)
		}
		return allow()

	case ActionReadChildren:
		if caller.Role != models.RoleParent {
			return deny(ReasonWrongRole)
		}
		return allow()

	case ActionSendMessage, ActionReadMessages:
		// Either participant may act; no role restriction.
		if caller.UserID != facts.SenderID && caller.UserID != facts.ReceiverID {
			return deny(ReasonNotOwner)
		}
		return allow()
	}

	return deny(ReasonWrongRole)
}

func ownerOnly(caller Caller, facts Facts) Decision {
	if caller.Role != models.RoleTeacher {
		return deny(ReasonWrongRole)
	}
	if !facts.ClassExists {
		return deny(ReasonNotFound)
	}
	if facts.ClassTeacherID != caller.UserID {
		return deny(ReasonNotOwner)
	}
	return allow()
}

func ownerOrEnrolled(caller Caller, facts Facts) Decision {
	if !facts.ClassExists {
		return deny(ReasonNotFound)
	}
	switch caller.Role {
	case models.RoleTeacher:
		if facts.ClassTeacherID != caller.UserID {
			return deny(ReasonNotOwner)
		}
		return allow()
	case models.RoleStudent:
		if !facts.Enrolled {
			return deny(ReasonNotOwner)
		}
		return allow()
	}
	return deny(ReasonWrongRole)
}
