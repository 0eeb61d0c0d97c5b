// Package docgraph declares the referential rules between workflow
// documents. The dispatch service consults this table before deleting a
// parent so cascade and detach behaviour stays in one place.
package docgraph

// Action describes what happens to a child document when its parent is
// deleted.
type Action string

const (
	// Cascade removes the child together with the parent.
	Cascade Action = "cascade"
	// Nullify clears the child's reference but keeps the child.
	Nullify Action = "nullify"
)

// Entity names used across the referential graph.
const (
	EntityDispatch     = "route_dispatch"
	EntityTripSheet    = "trip_sheet"
	EntityLorryReceipt = "lorry_receipt"
	EntityPOD          = "proof_of_delivery"
	EntityEwayBill     = "eway_bill"
)

// Rule binds a parent/child pair to its on-delete action.
type Rule struct {
	Parent string
	Child  string
	Action Action
}

// policies is the full referential-policy table. Lorry receipts and e-way
// bills belong to their dispatch; a proof of delivery outlives both its
// dispatch and its lorry receipt.
var policies = []Rule{
	{Parent: EntityDispatch, Child: EntityLorryReceipt, Action: Cascade},
	{Parent: EntityDispatch, Child: EntityEwayBill, Action: Cascade},
	{Parent: EntityDispatch, Child: EntityPOD, Action: Nullify},
	{Parent: EntityLorryReceipt, Child: EntityPOD, Action: Nullify},
}

// RulesFor returns the on-delete rules that apply when parent is removed.
func RulesFor(parent string) []Rule {
	var out []Rule
	for _, r := range policies {
		if r.Parent == parent {
			out = append(out, r)
		}
	}
	return out
}

// ActionFor returns the configured action for a parent/child pair, or ""
// when the pair is unrelated.
func ActionFor(parent, child string) Action {
	for _, r := range policies {
		if r.Parent == parent && r.Child == child {
			return r.Action
		}
	}
	return ""
}
