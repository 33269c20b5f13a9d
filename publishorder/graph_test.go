package publishorder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsr-io/jsr-publish/publishorder"
)

func TestTopologicalOrder(t *testing.T) {
	// A -> B -> C: B must finish before A starts, C before B.
	g, err := publishorder.New(
		[]string{"a", "b", "c"},
		map[string][]string{"a": {"b"}, "b": {"c"}},
	)
	require.NoError(t, err)

	require.Equal(t, []string{"c"}, g.Next())
	require.Empty(t, g.Next())

	g.FinishPackage("c")
	require.Equal(t, []string{"b"}, g.Next())

	g.FinishPackage("b")
	require.Equal(t, []string{"a"}, g.Next())

	g.FinishPackage("a")
	require.NoError(t, g.EnsureNoPending())
}

func TestIndependentSiblingsReadyTogether(t *testing.T) {
	g, err := publishorder.New([]string{"a", "b"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, g.Next())
}

func TestCycleRejected(t *testing.T) {
	_, err := publishorder.New(
		[]string{"a", "b"},
		map[string][]string{"a": {"b"}, "b": {"a"}},
	)
	require.Error(t, err)

	var cycleErr *publishorder.CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.ElementsMatch(t, []string{"a", "b"}, cycleErr.Nodes)
}

func TestEnsureNoPendingFailsOnResidual(t *testing.T) {
	g, err := publishorder.New([]string{"a", "b"}, map[string][]string{"a": {"b"}})
	require.NoError(t, err)
	g.Next() // marks "b" pending, never finished
	err = g.EnsureNoPending()
	require.Error(t, err)
}

func TestExternalDependenciesIgnored(t *testing.T) {
	g, err := publishorder.New([]string{"a"}, map[string][]string{"a": {"some-third-party-lib"}})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, g.Next())
}
