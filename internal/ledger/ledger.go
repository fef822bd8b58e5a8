package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region action-kind
// ActionKind identifies a public action for cost accounting.
type ActionKind string

const (
	ActionInitScene      ActionKind = "init_scene"
	ActionTurnBy         ActionKind = "turn_by"
	ActionTurnTo         ActionKind = "turn_to"
	ActionMoveBy         ActionKind = "move_by"
	ActionMoveTo         ActionKind = "move_to"
	ActionResetPosition  ActionKind = "reset_position"
	ActionReachFor       ActionKind = "reach_for"
	ActionGrasp          ActionKind = "grasp"
	ActionDrop           ActionKind = "drop"
	ActionResetArm       ActionKind = "reset_arm"
	ActionPickUp         ActionKind = "pick_up"
	ActionPutIn          ActionKind = "put_in"
	ActionPourOut        ActionKind = "pour_out"
	ActionVisibleObjects ActionKind = "visible_objects"
)

// Weights is the fixed cost of each action kind. Unlisted kinds cost 0.
var Weights = map[ActionKind]int{
	ActionTurnBy:        1,
	ActionTurnTo:        1,
	ActionMoveBy:        1,
	ActionMoveTo:        2,
	ActionResetPosition: 1,
	ActionReachFor:      1,
	ActionGrasp:         1,
	ActionDrop:          1,
	ActionResetArm:      1,
	ActionPickUp:        2,
	ActionPutIn:         1,
	ActionPourOut:       1,
}

// PutInRebate is subtracted after put_in charges its two arm resets.
const PutInRebate = 1

// #endregion action-kind

// #region metrics
var (
	costTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_action_cost_total",
		Help: "Interaction budget charged, by action kind.",
	}, []string{"action"})

	rebateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_action_rebate_total",
		Help: "Interaction budget returned by compound-action rebates.",
	})

	ledgerResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_ledger_resets_total",
		Help: "Scene initializations that zeroed the ledger.",
	})
)

// #endregion metrics

// #region ledger
// Ledger is the interaction budget counter. It only decreases through Rebate
// and is zeroed only by Reset at scene initialization.
type Ledger struct {
	cost int
}

// New returns a zeroed ledger.
func New() *Ledger {
	return &Ledger{}
}

// Charge adds the weight of kind and returns the running cost.
func (l *Ledger) Charge(kind ActionKind) int {
	return l.ChargeFor(kind, kind)
}

// ChargeFor adds the weight of kind on behalf of the compound action parent.
// The exported counter attributes the spend to parent.
func (l *Ledger) ChargeFor(kind, parent ActionKind) int {
	w := Weights[kind]
	if w > 0 {
		l.cost += w
		costTotal.WithLabelValues(string(parent)).Add(float64(w))
	}
	return l.cost
}

// Rebate returns n units to the budget.
func (l *Ledger) Rebate(n int) int {
	if n > 0 {
		l.cost -= n
		rebateTotal.Add(float64(n))
	}
	return l.cost
}

// Cost is the running total.
func (l *Ledger) Cost() int {
	return l.cost
}

// Reset zeroes the ledger.
func (l *Ledger) Reset() {
	l.cost = 0
	ledgerResets.Inc()
}

// #endregion ledger
