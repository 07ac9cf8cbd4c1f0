package pminimal

import (
	"github.com/sirupsen/logrus"

	"github.com/xDarkicex/pminimal/oracle"
)

// DebugLogger is a Logger that writes one structured logrus entry per
// search event. It never asks the solver to stop.
type DebugLogger struct {
	log logrus.FieldLogger
}

// NewDebugLogger wraps a logrus logger (or entry) as a search
// observer.
func NewDebugLogger(log logrus.FieldLogger) *DebugLogger {
	return &DebugLogger{log: log}
}

func (d *DebugLogger) Candidate(costs []int, phase SearchPhase) error {
	d.log.WithFields(logrus.Fields{
		"costs": costs,
		"phase": phase.String(),
	}).Debug("candidate cost point")
	return nil
}

func (d *DebugLogger) OracleCall(result oracle.Result, phase SearchPhase) error {
	d.log.WithFields(logrus.Fields{
		"result": result.String(),
		"phase":  phase.String(),
	}).Debug("oracle call")
	return nil
}

func (d *DebugLogger) Solution() error {
	d.log.Debug("solution recorded")
	return nil
}

func (d *DebugLogger) ParetoPoint(pp NonDomPoint) error {
	d.log.WithFields(logrus.Fields{
		"costs":     pp.Cost,
		"solutions": len(pp.Solutions),
	}).Info("pareto point")
	return nil
}

func (d *DebugLogger) HeuristicImprovement(objIdx, apparent, improved, learned int) error {
	d.log.WithFields(logrus.Fields{
		"objective":       objIdx,
		"apparent_cost":   apparent,
		"improved_cost":   improved,
		"learned_clauses": learned,
	}).Debug("heuristic improvement")
	return nil
}
