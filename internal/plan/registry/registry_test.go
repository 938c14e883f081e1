package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

type color int32

const (
	colorRed color = iota
	colorGreen
	colorBlue
)

type leafNode struct {
	Name  string `plan:"name"`
	Count int32  `plan:"count"`

	scratch int // 未导出字段不参与序列化
}

type treeNode struct {
	ID       int64             `plan:"id"`
	Children []*leafNode       `plan:"children"`
	Labels   map[string]string `plan:"labels"`
	Color    color             `plan:"color"`
	Skipped  string            `plan:"-"`
	Ignored  string
}

type badBareStruct struct {
	Leaf leafNode `plan:"leaf"`
}

type badMapKey struct {
	Index map[int32]string `plan:"index"`
}

type badReservedKey struct {
	V string `plan:"ENUM_VALUE_KEY"`
}

type dupMember struct {
	A string `plan:"x"`
	B string `plan:"x"`
}

type RegistrySuite struct {
	suite.Suite

	r *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.r = New()
}

func (s *RegistrySuite) TestRegisterStruct() {
	desc, err := Register[treeNode](s.r, "plan.TreeNode")
	s.NoError(err)
	s.Equal("plan.TreeNode", desc.Name())
	s.Equal(reflect.TypeFor[treeNode](), desc.Type())
	s.False(desc.IsEnum())

	// 未打标与标记为 "-" 的字段不出现在字段清单中。
	s.Len(desc.Fields(), 4)
	_, ok := desc.Field("Skipped")
	s.False(ok)
	_, ok = desc.Field("Ignored")
	s.False(ok)

	f, ok := desc.Field("children")
	s.True(ok)
	s.Equal(KindList, f.Kind)

	f, ok = desc.Field("labels")
	s.True(ok)
	s.Equal(KindMap, f.Kind)

	f, ok = desc.Field("color")
	s.True(ok)
	s.Equal(KindObject, f.Kind)

	got, ok := s.r.Lookup("plan.TreeNode")
	s.True(ok)
	s.Same(desc, got)

	got, ok = s.r.LookupType(reflect.TypeFor[treeNode]())
	s.True(ok)
	s.Same(desc, got)
}

func (s *RegistrySuite) TestUnexportedFieldsSkipped() {
	desc, err := Register[leafNode](s.r, "plan.LeafNode")
	s.NoError(err)
	s.Len(desc.Fields(), 2)
}

func (s *RegistrySuite) TestRegisterRejects() {
	_, err := s.r.Register("", &leafNode{})
	s.ErrorIs(err, merr.ErrParameterMissing)

	_, err = s.r.Register("null", &leafNode{})
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = s.r.Register("plan.NotAStruct", 42)
	s.ErrorIs(err, merr.ErrTypeNotConstructible)

	_, err = Register[badBareStruct](s.r, "plan.BadBareStruct")
	s.ErrorIs(err, merr.ErrFieldBadSpec)

	_, err = Register[badMapKey](s.r, "plan.BadMapKey")
	s.ErrorIs(err, merr.ErrFieldBadSpec)

	_, err = Register[badReservedKey](s.r, "plan.BadReservedKey")
	s.ErrorIs(err, merr.ErrWireKeyReserved)

	_, err = Register[dupMember](s.r, "plan.DupMember")
	s.ErrorIs(err, merr.ErrFieldBadSpec)
}

func (s *RegistrySuite) TestRegisterDuplicated() {
	_, err := Register[leafNode](s.r, "plan.LeafNode")
	s.NoError(err)

	_, err = Register[treeNode](s.r, "plan.LeafNode")
	s.ErrorIs(err, merr.ErrTypeDuplicated)

	_, err = Register[leafNode](s.r, "plan.LeafNodeAlias")
	s.ErrorIs(err, merr.ErrTypeDuplicated)
}

func (s *RegistrySuite) TestRegisterEnum() {
	desc, err := RegisterEnum(s.r, "plan.Color", map[string]color{
		"RED":   colorRed,
		"GREEN": colorGreen,
		"BLUE":  colorBlue,
	})
	s.NoError(err)
	s.True(desc.IsEnum())

	v, ok := desc.EnumValue("GREEN")
	s.True(ok)
	s.Equal(colorGreen, v.Interface())

	name, ok := desc.EnumName(colorBlue)
	s.True(ok)
	s.Equal("BLUE", name)

	_, ok = desc.EnumValue("PURPLE")
	s.False(ok)
}

func (s *RegistrySuite) TestRegisterEnumRejects() {
	_, err := RegisterEnum(s.r, "plan.Unnamed", map[string]int32{"ONE": 1})
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = RegisterEnum(s.r, "plan.Empty", map[string]color{})
	s.ErrorIs(err, merr.ErrParameterMissing)

	_, err = RegisterEnum(s.r, "plan.Ambiguous", map[string]color{
		"A": colorRed,
		"B": colorRed,
	})
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *RegistrySuite) TestResolve() {
	desc, err := Register[leafNode](s.r, "plan.LeafNode")
	s.NoError(err)

	got, err := s.r.Resolve("plan.LeafNode", nil)
	s.NoError(err)
	s.Same(desc, got)

	// 精确解析失败但有 fallback 时回退到目标类型。
	got, err = s.r.Resolve("plan.Unknown", desc)
	s.NoError(err)
	s.Same(desc, got)

	_, err = s.r.Resolve("plan.Unknown", nil)
	s.ErrorIs(err, merr.ErrTypeNotRegistered)
}

func (s *RegistrySuite) TestKindOf() {
	cases := []struct {
		typ  reflect.Type
		kind Kind
	}{
		{reflect.TypeFor[bool](), KindLiteral},
		{reflect.TypeFor[int32](), KindLiteral},
		{reflect.TypeFor[int64](), KindLiteral},
		{reflect.TypeFor[float32](), KindLiteral},
		{reflect.TypeFor[float64](), KindLiteral},
		{reflect.TypeFor[string](), KindLiteral},
		{reflect.TypeFor[[]byte](), KindLiteral},
		{reflect.TypeFor[[]int64](), KindList},
		{reflect.TypeFor[[]*leafNode](), KindList},
		{reflect.TypeFor[map[string]any](), KindMap},
		{reflect.TypeFor[*leafNode](), KindObject},
		{reflect.TypeFor[any](), KindObject},
		{reflect.TypeFor[color](), KindObject},
	}
	for _, c := range cases {
		kind, err := KindOf(c.typ)
		s.NoError(err)
		s.Equal(c.kind, kind, c.typ.String())
	}

	for _, typ := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[leafNode](),
		reflect.TypeFor[map[int64]string](),
		reflect.TypeFor[*int32](),
		reflect.TypeFor[chan int](),
	} {
		_, err := KindOf(typ)
		s.Error(err, typ.String())
	}
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}
