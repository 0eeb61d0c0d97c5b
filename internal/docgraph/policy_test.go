package docgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchDeletionRules(t *testing.T) {
	rules := RulesFor(EntityDispatch)
	require.Len(t, rules, 3)

	require.Equal(t, Cascade, ActionFor(EntityDispatch, EntityLorryReceipt))
	require.Equal(t, Cascade, ActionFor(EntityDispatch, EntityEwayBill))
	require.Equal(t, Nullify, ActionFor(EntityDispatch, EntityPOD))
}

func TestLorryReceiptKeepsItsPOD(t *testing.T) {
	require.Equal(t, Nullify, ActionFor(EntityLorryReceipt, EntityPOD))
}

func TestUnrelatedPairsHaveNoAction(t *testing.T) {
	require.Empty(t, ActionFor(EntityTripSheet, EntityPOD))
	require.Empty(t, RulesFor(EntityPOD))
	require.Empty(t, RulesFor(EntityEwayBill))
}
