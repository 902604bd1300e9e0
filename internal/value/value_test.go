package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessFieldNestedArrayIndex(t *testing.T) {
	alice := OfObject("user0", NewObject(map[string]Value{
		"name": OfSimpleText("name", "Alice", Location{}, NewSecurity()),
	}, []string{"name"}), Location{}, NewSecurity())
	bob := OfObject("user1", NewObject(map[string]Value{
		"name": OfSimpleText("name", "Bob", Location{}, NewSecurity()),
	}, []string{"name"}), Location{}, NewSecurity())

	users := OfArray("users", []Value{alice, bob}, Location{}, NewSecurity("src:fs"))

	got, err := AccessField(users, []Step{IndexStep(1), NameStep("name")}, Strict, Value{})
	require.NoError(t, err)

	s, err := CoerceToString(got, FormatContext{Inline: true})
	require.NoError(t, err)
	require.Equal(t, "Bob", s)
	require.True(t, got.Metadata().Security.HasTaint("src:fs"))
}

func TestAccessFieldOutOfBoundsStrict(t *testing.T) {
	arr := OfArray("xs", []Value{OfPrimitive("0", 1, Location{}, NewSecurity())}, Location{}, NewSecurity())
	_, err := AccessField(arr, []Step{IndexStep(5)}, Strict, Value{})
	require.Error(t, err)
	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ErrIndexOutOfRange, ae.Kind)
}

func TestAccessFieldLenientDefault(t *testing.T) {
	arr := OfArray("xs", nil, Location{}, NewSecurity())
	dflt := OfSimpleText("default", "fallback", Location{}, NewSecurity())
	got, err := AccessField(arr, []Step{IndexStep(0)}, Lenient, dflt)
	require.NoError(t, err)
	require.Equal(t, "fallback", got.payload)
}

func TestAccessFieldTotality(t *testing.T) {
	obj := OfObject("root", NewObject(map[string]Value{
		"a": OfObject("a", NewObject(map[string]Value{
			"b": OfSimpleText("b", "leaf", Location{}, NewSecurity()),
		}, []string{"b"}), Location{}, NewSecurity()),
	}, []string{"a"}), Location{}, NewSecurity())

	direct, err := AccessField(obj, []Step{NameStep("a"), NameStep("b")}, Strict, Value{})
	require.NoError(t, err)

	step1, err := AccessField(obj, []Step{NameStep("a")}, Strict, Value{})
	require.NoError(t, err)
	composed, err := AccessField(step1, []Step{NameStep("b")}, Strict, Value{})
	require.NoError(t, err)

	require.Equal(t, direct.payload, composed.payload)
}

func TestCoerceEmptyArrayAndObject(t *testing.T) {
	s, err := CoerceToString(OfArray("a", nil, Location{}, NewSecurity()), FormatContext{})
	require.NoError(t, err)
	require.Equal(t, "[]", s)

	s, err = CoerceToString(OfObject("o", NewObject(nil, nil), Location{}, NewSecurity()), FormatContext{})
	require.NoError(t, err)
	require.Equal(t, "{}", s)
}

func TestCoerceBlockArrayBullets(t *testing.T) {
	arr := OfArray("a", []Value{
		OfSimpleText("0", "one", Location{}, NewSecurity()),
		OfSimpleText("1", "two", Location{}, NewSecurity()),
	}, Location{}, NewSecurity())
	s, err := CoerceToString(arr, FormatContext{Block: true})
	require.NoError(t, err)
	require.Equal(t, "- one\n- two", s)
}

func TestSecurityUnionMonotonicity(t *testing.T) {
	a := NewSecurity("src:fs")
	b := NewSecurity("src:exec")
	u := Union(a, b)
	require.True(t, u.HasTaint("src:fs"))
	require.True(t, u.HasTaint("src:exec"))
}
