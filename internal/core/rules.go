package core

import "dentalcore/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewIncidentPatientRefRule())
	engine.Register(NewUserPatientRefRule())
	engine.Register(NewIncidentCostRule())
	engine.Register(NewOrphanedIncidentsRule())
	return engine
}
