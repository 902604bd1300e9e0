package environment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/value"
)

func TestSetRejectsReservedName(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	err := root.Set("now", value.OfSimpleText("now", "x", value.Location{}, value.NewSecurity()))
	require.Error(t, err)
	var be *BindError
	require.ErrorAs(t, err, &be)
	require.Equal(t, ErrReservedName, be.Kind)
}

func TestSetSameScopeCollision(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	v := value.OfSimpleText("x", "1", value.Location{}, value.NewSecurity())
	require.NoError(t, root.Set("x", v))
	err := root.Set("x", v)
	require.Error(t, err)
	var be *BindError
	require.ErrorAs(t, err, &be)
	require.Equal(t, RedefinitionSameFile, be.Class)
}

func TestSetParameterShadowsParent(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	require.NoError(t, root.Set("who", value.OfSimpleText("who", "outer", value.Location{}, value.NewSecurity())))

	child := root.CreateChild("/proj")
	require.NoError(t, child.SetParameter("who", value.OfSimpleText("who", "inner", value.Location{}, value.NewSecurity())))

	got, ok := child.Get("who")
	require.True(t, ok)
	p, _ := got.Payload()
	require.Equal(t, "inner", p)

	outer, ok := root.Get("who")
	require.True(t, ok)
	p, _ = outer.Payload()
	require.Equal(t, "outer", p)
}

func TestAmbientCtxDefaults(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	ctx, ok := root.Get("ctx")
	require.True(t, ok)
	obj, err := ctx.Payload()
	require.NoError(t, err)
	o := obj.(value.Object)
	tryF, isPipeF := o.Fields["try"], o.Fields["isPipeline"]
	tryV, _ := tryF.Payload()
	require.Equal(t, 1, tryV)
	isPipe, _ := isPipeF.Payload()
	require.Equal(t, false, isPipe)
}

func TestPipelineContextOverridesCtx(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	staged := root.WithPipelineContext(&PipelineContext{Try: 2, Stage: 1, IsPipeline: true, LastOutput: "prev"})

	ctx, ok := staged.Get("ctx")
	require.True(t, ok)
	obj, _ := ctx.Payload()
	o := obj.(value.Object)
	tryF, lastF := o.Fields["try"], o.Fields["lastOutput"]
	tryV, _ := tryF.Payload()
	require.Equal(t, 2, tryV)
	last, _ := lastF.Payload()
	require.Equal(t, "prev", last)
}

func TestImportStackDetectsCycle(t *testing.T) {
	s := NewImportStack()
	_, cyclic := s.Push("a.mld")
	require.False(t, cyclic)
	_, cyclic = s.Push("b.mld")
	require.False(t, cyclic)
	chain, cyclic := s.Push("a.mld")
	require.True(t, cyclic)
	require.Equal(t, []string{"a.mld", "b.mld", "a.mld"}, chain)
}

func TestAllFlattensParentChain(t *testing.T) {
	root := NewRoot(RootOptions{BasePath: "/proj"})
	require.NoError(t, root.Set("a", value.OfSimpleText("a", "1", value.Location{}, value.NewSecurity())))
	child := root.CreateChild("/proj")
	require.NoError(t, child.Set("b", value.OfSimpleText("b", "2", value.Location{}, value.NewSecurity())))

	all := child.All()
	require.Contains(t, all, "a")
	require.Contains(t, all, "b")
}
