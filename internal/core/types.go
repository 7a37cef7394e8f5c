package core

import "dentalcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Role               = domain.Role
	IncidentStatus     = domain.IncidentStatus
	Severity           = domain.Severity
	Base               = domain.Base
	User               = domain.User
	Patient            = domain.Patient
	Incident           = domain.Incident
	IncidentFile       = domain.IncidentFile
	Document           = domain.Document
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	ErrNotFound        = domain.ErrNotFound
)

const (
	EntityUser     = domain.EntityUser
	EntityPatient  = domain.EntityPatient
	EntityIncident = domain.EntityIncident
)

const (
	RoleAdmin   = domain.RoleAdmin
	RolePatient = domain.RolePatient
)

const (
	IncidentScheduled = domain.IncidentScheduled
	IncidentCompleted = domain.IncidentCompleted
	IncidentCancelled = domain.IncidentCancelled
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
