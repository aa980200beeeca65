package dag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/task"
	"github.com/vk/taskgridgo/internal/testutil"
)

func spec(kind string) task.Spec {
	return task.NewSpec(kind, task.NewParams(nil))
}

func TestBuild_SharedDependencyExpandsOnce(t *testing.T) {
	// Diamond: root depends on a and b, both depend on c.
	c := &testutil.FakeTask{TaskKind: "c"}
	a := &testutil.FakeTask{TaskKind: "a", DepSpecs: []task.Spec{spec("c")}}
	b := &testutil.FakeTask{TaskKind: "b", DepSpecs: []task.Spec{spec("c")}}
	root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{spec("a"), spec("b")}}
	reg := testutil.NewRegistry(c, a, b, root)

	graph, err := Build(context.Background(), reg, spec("root"))
	require.NoError(t, err)

	assert.Equal(t, 4, graph.Len(), "the shared dependency must appear exactly once")

	cNode, ok := graph.Lookup("c()")
	require.True(t, ok)
	aNode, ok := graph.Lookup("a()")
	require.True(t, ok)
	bNode, ok := graph.Lookup("b()")
	require.True(t, ok)

	assert.Same(t, cNode, aNode.Deps[0], "both parents must share the same node")
	assert.Same(t, cNode, bNode.Deps[0])
	assert.ElementsMatch(t, []*Node{aNode, bNode}, cNode.Dependents)
}

func TestBuild_SameKindDifferentParamsAreDistinct(t *testing.T) {
	gen := &testutil.FakeTask{TaskKind: "create_graph"}
	root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{
		task.NewSpec("create_graph", task.NewParams(map[string]string{"nodes": "12"})),
		task.NewSpec("create_graph", task.NewParams(map[string]string{"nodes": "24"})),
	}}
	reg := testutil.NewRegistry(gen, root)

	graph, err := Build(context.Background(), reg, spec("root"))
	require.NoError(t, err)

	assert.Equal(t, 3, graph.Len(), "different parameter bindings are different instances")
}

func TestBuild_DuplicateDependencyCollapses(t *testing.T) {
	dep := &testutil.FakeTask{TaskKind: "dep"}
	root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{spec("dep"), spec("dep")}}
	reg := testutil.NewRegistry(dep, root)

	graph, err := Build(context.Background(), reg, spec("root"))
	require.NoError(t, err)

	require.Len(t, graph.Root.Deps, 1, "a dependency declared twice collapses to one edge")
}

func TestBuild_DepthAndOrder(t *testing.T) {
	// Chain root -> mid -> leaf, plus a direct root -> leaf edge.
	leaf := &testutil.FakeTask{TaskKind: "leaf"}
	mid := &testutil.FakeTask{TaskKind: "mid", DepSpecs: []task.Spec{spec("leaf")}}
	root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{spec("leaf"), spec("mid")}}
	reg := testutil.NewRegistry(leaf, mid, root)

	graph, err := Build(context.Background(), reg, spec("root"))
	require.NoError(t, err)

	leafNode, _ := graph.Lookup("leaf()")
	midNode, _ := graph.Lookup("mid()")

	assert.Equal(t, 0, leafNode.Depth, "leaves sit at depth zero")
	assert.Equal(t, 1, midNode.Depth)
	assert.Equal(t, 2, graph.Root.Depth, "depth follows the longest chain, not the shortest edge")

	// Post-order expansion: a node is appended after all its dependencies.
	assert.Less(t, leafNode.Order, midNode.Order)
	assert.Less(t, midNode.Order, graph.Root.Order)
}

func TestBuild_CycleFailsWithPath(t *testing.T) {
	a := &testutil.FakeTask{TaskKind: "a", DepSpecs: []task.Spec{spec("b")}}
	b := &testutil.FakeTask{TaskKind: "b", DepSpecs: []task.Spec{spec("c")}}
	c := &testutil.FakeTask{TaskKind: "c", DepSpecs: []task.Spec{spec("a")}}
	reg := testutil.NewRegistry(a, b, c)

	_, err := Build(context.Background(), reg, spec("a"))
	require.Error(t, err)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a()", "b()", "c()", "a()"}, cycleErr.Path)
	assert.Contains(t, err.Error(), "a() -> b() -> c() -> a()")
}

func TestBuild_SelfDependencyIsACycle(t *testing.T) {
	a := &testutil.FakeTask{TaskKind: "a", DepSpecs: []task.Spec{spec("a")}}
	reg := testutil.NewRegistry(a)

	_, err := Build(context.Background(), reg, spec("a"))
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a()", "a()"}, cycleErr.Path)
}

func TestBuild_UnknownKindAborts(t *testing.T) {
	root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{spec("ghost")}}
	reg := testutil.NewRegistry(root)

	_, err := Build(context.Background(), reg, spec("root"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestBuild_DeclarationErrorsAbort(t *testing.T) {
	t.Run("requires error", func(t *testing.T) {
		bad := &testutil.FakeTask{TaskKind: "bad", RequiresErr: errors.New("nodes must be at least 2")}
		reg := testutil.NewRegistry(bad)

		_, err := Build(context.Background(), reg, spec("bad"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve dependencies")
	})

	t.Run("outputs error", func(t *testing.T) {
		bad := &testutil.FakeTask{TaskKind: "bad", OutputsErr: errors.New("unknown graph type")}
		reg := testutil.NewRegistry(bad)

		_, err := Build(context.Background(), reg, spec("bad"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve outputs")
	})

	t.Run("error deep in the graph names the failing instance", func(t *testing.T) {
		bad := &testutil.FakeTask{TaskKind: "bad", OutputsErr: errors.New("boom")}
		root := &testutil.FakeTask{TaskKind: "root", DepSpecs: []task.Spec{spec("bad")}}
		reg := testutil.NewRegistry(bad, root)

		_, err := Build(context.Background(), reg, spec("root"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad()")
	})
}
