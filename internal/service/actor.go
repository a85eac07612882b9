package service

import (
	"github.com/noah-isme/gradebook-api/internal/models"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// SystemActor is used for operations not triggered by a user, such as seeding.
var SystemActor = Actor{Role: models.RoleAdmin}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Policy decides which actor may perform which gradebook operation.
type Policy interface {
	CanConfigure(actor Actor, subject models.Subject) bool
	CanRecordGrade(actor Actor, subject models.Subject) bool
	CanSubmitChange(actor Actor, subject models.Subject) bool
	CanResolveChange(actor Actor) bool
	CanManageEnrollment(actor Actor) bool
	CanViewSubject(actor Actor, studentID uint, subject models.Subject) bool
	CanViewStudent(actor Actor, studentID uint) bool
}

// RolePolicy grants admins everything, teachers the subjects they teach and students read
// access to their own grades.
type RolePolicy struct{}

// NewRolePolicy constructs the default policy.
func NewRolePolicy() Policy {
	return RolePolicy{}
}

func (RolePolicy) CanConfigure(actor Actor, subject models.Subject) bool {
	return actor.IsAdmin() || (actor.Role == models.RoleTeacher && subject.IsTaughtBy(actor.ID))
}

func (RolePolicy) CanRecordGrade(actor Actor, subject models.Subject) bool {
	return actor.IsAdmin() || (actor.Role == models.RoleTeacher && subject.IsTaughtBy(actor.ID))
}

// CanSubmitChange only admits the subject's teacher; admins change grades by resolving.
func (RolePolicy) CanSubmitChange(actor Actor, subject models.Subject) bool {
	return actor.Role == models.RoleTeacher && subject.IsTaughtBy(actor.ID)
}

func (RolePolicy) CanResolveChange(actor Actor) bool {
	return actor.IsAdmin()
}

func (RolePolicy) CanManageEnrollment(actor Actor) bool {
	return actor.IsAdmin()
}

func (RolePolicy) CanViewSubject(actor Actor, studentID uint, subject models.Subject) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return subject.IsTaughtBy(actor.ID)
	case models.RoleStudent:
		return actor.ID == studentID
	default:
		return false
	}
}

func (RolePolicy) CanViewStudent(actor Actor, studentID uint) bool {
	return actor.IsAdmin() || (actor.Role == models.RoleStudent && actor.ID == studentID)
}
