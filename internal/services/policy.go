package services

import "github.com/dutyroster/apiserver/types"

// Relation is a way an account can be related to a resource.
type Relation int

const (
	RelationAny Relation = iota
	RelationSelf
	RelationCreator
	RelationAssignee
	RelationAdmin
)

func (r Relation) String() string {
	switch r {
	case RelationAny:
		return "any"
	case RelationSelf:
		return "self"
	case RelationCreator:
		return "creator"
	case RelationAssignee:
		return "assignee"
	case RelationAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Action names an operation guarded by a Policy.
type Action string

const (
	ActionCreate         Action = "create"
	ActionList           Action = "list"
	ActionRead           Action = "read"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionResetPassword  Action = "reset_password"
	ActionSetAdmin       Action = "set_admin"
	ActionChangePassword Action = "change_password"
	ActionCalendar       Action = "calendar"
	ActionBatchDelete    Action = "batch_delete"
	ActionComplete       Action = "complete"
)

// Subject describes the accounts a resource is tied to.
type Subject struct {
	// OwnerID is the account the resource belongs to (the "self" relation).
	OwnerID    int
	CreatorID  int
	AssigneeID *int
}

// Policy lists, per action, the relations that grant it. An actor needs
// at least one of them. Actions missing from the table are denied.
type Policy map[Action][]Relation

// Allows reports whether actor may perform action on subject.
func (p Policy) Allows(actor types.Account, action Action, subject Subject) bool {
	for _, relation := range p[action] {
		if relation.holds(actor, subject) {
			return true
		}
	}
	return false
}

// Check is Allows returning a Forbidden error.
func (p Policy) Check(actor types.Account, action Action, subject Subject) error {
	if !p.Allows(actor, action, subject) {
		return forbidden()
	}
	return nil
}

func (r Relation) holds(actor types.Account, subject Subject) bool {
	switch r {
	case RelationAny:
		return true
	case RelationAdmin:
		return actor.IsAdmin
	case RelationSelf:
		return subject.OwnerID != 0 && actor.ID == subject.OwnerID
	case RelationCreator:
		return subject.CreatorID != 0 && actor.ID == subject.CreatorID
	case RelationAssignee:
		return subject.AssigneeID != nil && *subject.AssigneeID == actor.ID
	default:
		return false
	}
}

var AccountPolicy = Policy{
	ActionCreate:         {RelationAdmin},
	ActionList:           {RelationAny},
	ActionRead:           {RelationAdmin, RelationSelf},
	ActionUpdate:         {RelationAdmin, RelationSelf},
	ActionResetPassword:  {RelationAdmin},
	ActionSetAdmin:       {RelationAdmin},
	ActionDelete:         {RelationAdmin},
	ActionChangePassword: {RelationAny},
}

var SchedulePolicy = Policy{
	ActionCreate:      {RelationAdmin},
	ActionList:        {RelationAny},
	ActionCalendar:    {RelationAny},
	ActionUpdate:      {RelationAdmin},
	ActionDelete:      {RelationAdmin},
	ActionBatchDelete: {RelationAdmin},
}

var WorkRecordPolicy = Policy{
	ActionCreate: {RelationAdmin, RelationSelf},
	ActionList:   {RelationAny},
	ActionRead:   {RelationAny},
	ActionUpdate: {RelationAdmin, RelationSelf},
	ActionDelete: {RelationAdmin, RelationSelf},
}

// TodoPolicy keeps three distinct rule sets: read and update allow the
// creator and the assignee, delete only the creator, complete only the
// assignee.
var TodoPolicy = Policy{
	ActionCreate:   {RelationAny},
	ActionList:     {RelationAny},
	ActionRead:     {RelationAdmin, RelationCreator, RelationAssignee},
	ActionUpdate:   {RelationAdmin, RelationCreator, RelationAssignee},
	ActionDelete:   {RelationAdmin, RelationCreator},
	ActionComplete: {RelationAdmin, RelationAssignee},
}
