package serde

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/planwire-go/internal/plan/registry"
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// Deserialize 将线上对象记录还原为对象。
//
// dst 为目标类型的描述符，同时充当类型名解析失败时的回退类型。
// 返回值：空对象哨兵 → nil；枚举记录 → 枚举标量值；
// 其余 → 指向新构造结构体的指针。
//
// 失败语义是快速失败：第一个失败的成员即中止整个还原，
// 返回包装后的错误。需要观察部分赋值结果时使用 DeserializeInto。
func (s *Serde) Deserialize(v wire.Value, dst *registry.Descriptor) (any, error) {
	if dst == nil {
		return nil, merr.WrapErrParameterMissing("dst", "deserialize")
	}

	o, ok := v.(*wire.Object)
	if !ok {
		return nil, merr.WrapErrStructuralMismatch(opDeserialize, dst.Name(), "",
			v.Kind().String(), wire.KindObject.String())
	}
	if o.IsNull() {
		return nil, nil
	}

	desc, err := s.r.Resolve(o.ClassName(), dst)
	if err != nil {
		return nil, err
	}

	if desc.IsEnum() {
		ev, err := s.deserializeEnum(o, desc)
		if err != nil {
			return nil, err
		}
		return ev.Interface(), nil
	}

	pv := desc.New()
	if err := s.assignMembers(pv.Elem(), desc, o); err != nil {
		return nil, err
	}
	return pv.Interface(), nil
}

// DeserializeAs 是 Deserialize 的泛型便捷入口。
// T 应为指向已注册结构体的指针类型，或已注册枚举类型。
func DeserializeAs[T any](s *Serde, v wire.Value) (T, error) {
	var zero T

	typ := reflect.TypeFor[T]()
	lookup := typ
	if typ.Kind() == reflect.Pointer {
		lookup = typ.Elem()
	}

	desc, ok := s.r.LookupType(lookup)
	if !ok {
		return zero, merr.WrapErrTypeNotRegistered(opDeserialize, lookup.String())
	}

	out, err := s.Deserialize(v, desc)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}

	t, ok := out.(T)
	if !ok {
		return zero, merr.WrapErrStructuralMismatch(opDeserialize, desc.Name(), "",
			reflect.TypeOf(out).String(), typ.String())
	}
	return t, nil
}

// DeserializeInto 将对象记录的成员逐个赋值到 obj 指向的既有结构体上。
//
// obj 必须为指向已注册结构体的非 nil 指针。赋值按字段声明顺序进行，
// 第一个失败的成员即中止并返回错误，此前已赋值的字段保持已赋状态：
// 失败不是原子的，obj 可能处于部分更新状态。
// 没有对应字段的线上成员被静默丢弃；rec 为空对象哨兵时 obj 保持原样。
func (s *Serde) DeserializeInto(obj any, rec *wire.Object) error {
	if obj == nil || rec == nil {
		return merr.WrapErrParameterMissing("obj/rec", "deserialize into")
	}

	pv := reflect.ValueOf(obj)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		return merr.WrapErrParameterInvalidMsg("obj must be a non-nil pointer to struct, got %T", obj)
	}

	desc, ok := s.r.LookupType(pv.Elem().Type())
	if !ok {
		return merr.WrapErrTypeNotRegistered(opDeserialize, pv.Elem().Type().String())
	}
	if rec.IsNull() {
		return nil
	}

	return s.assignMembers(pv.Elem(), desc, rec)
}

// assignMembers 将对象记录的成员赋值到结构体。
// 按目标类型的字段声明顺序遍历，线上缺席的成员跳过（字段保持现值），
// 没有对应字段的线上成员被静默丢弃。
func (s *Serde) assignMembers(v reflect.Value, desc *registry.Descriptor, o *wire.Object) error {
	for _, f := range desc.Fields() {
		m, ok := o.Member(f.Name)
		if !ok {
			continue
		}

		fv := v.Field(f.Index)
		if !fv.CanSet() {
			return merr.WrapErrFieldAccess(opDeserialize, desc.Name(), f.Name, "field is not settable")
		}

		if err := s.assignValue(fv, f.Type, f.Kind, m); err != nil {
			return fmt.Errorf("serde: deserialize field %s.%s: %w", desc.Name(), f.Name, err)
		}
	}
	return nil
}

// assignValue 将一个线上值赋给声明类型为 typ 的目标。
// 集合元素递归走同一条路径。
func (s *Serde) assignValue(dst reflect.Value, typ reflect.Type, kind registry.Kind, v wire.Value) error {
	// 空对象哨兵对任何目标类型都表示逻辑 null：
	// 可为 nil 的目标置 nil，其余目标置零值。
	if o, ok := v.(*wire.Object); ok && o.IsNull() {
		dst.Set(reflect.Zero(typ))
		return nil
	}

	switch kind {
	case registry.KindLiteral:
		return assignLiteral(dst, typ, v)

	case registry.KindList:
		return s.assignList(dst, typ, v)

	case registry.KindMap:
		return s.assignMap(dst, typ, v)

	case registry.KindObject:
		return s.assignObject(dst, typ, v)

	default:
		return merr.WrapErrParameterInvalidMsg("unknown wire kind %d for %s", kind, typ)
	}
}

// assignLiteral 要求线上标量类别与目标标量类型精确匹配，
// 不做任何位宽或类别之间的隐式转换。
func assignLiteral(dst reflect.Value, typ reflect.Type, v wire.Value) error {
	want, ok := registry.LiteralKindOf(typ)
	if !ok {
		return merr.WrapErrParameterInvalidMsg("type %s is not a literal scalar", typ)
	}

	lit, ok := v.(*wire.Literal)
	if !ok {
		return merr.WrapErrStructuralMismatch(opDeserialize, typ.String(), "",
			v.Kind().String(), wire.KindLiteral.String())
	}
	if lit.LiteralKind() != want {
		return merr.WrapErrStructuralMismatch(opDeserialize, typ.String(), "",
			lit.LiteralKind().String(), want.String())
	}

	switch want {
	case wire.LiteralBool:
		dst.SetBool(lit.BoolValue())
	case wire.LiteralInt:
		dst.SetInt(int64(lit.IntValue()))
	case wire.LiteralLong:
		dst.SetInt(lit.LongValue())
	case wire.LiteralFloat:
		dst.SetFloat(float64(lit.FloatValue()))
	case wire.LiteralDouble:
		dst.SetFloat(lit.DoubleValue())
	case wire.LiteralString:
		dst.SetString(lit.StringValue())
	case wire.LiteralBytes:
		dst.SetBytes(lit.BytesValue())
	}
	return nil
}

var typeAny = reflect.TypeFor[any]()

// assignList 将线上 List 还原为切片。
// 元素类型来自目标切片的声明：元素声明为空接口时无法恢复元素类型，
// 直接报错而不做任何推断。
func (s *Serde) assignList(dst reflect.Value, typ reflect.Type, v wire.Value) error {
	l, ok := v.(*wire.List)
	if !ok {
		return merr.WrapErrStructuralMismatch(opDeserialize, typ.String(), "",
			v.Kind().String(), wire.KindList.String())
	}

	elemType := typ.Elem()
	if elemType == typeAny {
		return merr.WrapErrNotParameterized(opDeserialize, typ.String(), "",
			"list element type cannot be recovered from an empty-interface declaration")
	}
	elemKind, err := registry.KindOf(elemType)
	if err != nil {
		return err
	}

	out := reflect.MakeSlice(typ, l.Len(), l.Len())
	for i, ev := range l.Elems() {
		if err := s.assignValue(out.Index(i), elemType, elemKind, ev); err != nil {
			return fmt.Errorf("serde: list element %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

// assignMap 将线上 Map 还原为 string 键映射，键原样保留。
func (s *Serde) assignMap(dst reflect.Value, typ reflect.Type, v wire.Value) error {
	m, ok := v.(*wire.Map)
	if !ok {
		return merr.WrapErrStructuralMismatch(opDeserialize, typ.String(), "",
			v.Kind().String(), wire.KindMap.String())
	}

	elemType := typ.Elem()
	if elemType == typeAny {
		return merr.WrapErrNotParameterized(opDeserialize, typ.String(), "",
			"map value type cannot be recovered from an empty-interface declaration")
	}
	elemKind, err := registry.KindOf(elemType)
	if err != nil {
		return err
	}

	out := reflect.MakeMapWithSize(typ, m.Len())
	for k, ev := range m.Entries() {
		elem := reflect.New(elemType).Elem()
		if err := s.assignValue(elem, elemType, elemKind, ev); err != nil {
			return fmt.Errorf("serde: map entry %q: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k), elem)
	}
	dst.Set(out)
	return nil
}

// assignObject 将线上对象记录还原到 Object 形态的目标：
// 指向结构体的指针、接口或枚举标量。
// 类型名解析以目标声明类型为回退；解析结果与目标声明不兼容时报错。
func (s *Serde) assignObject(dst reflect.Value, typ reflect.Type, v wire.Value) error {
	o, ok := v.(*wire.Object)
	if !ok {
		return merr.WrapErrStructuralMismatch(opDeserialize, typ.String(), "",
			v.Kind().String(), wire.KindObject.String())
	}

	fallback := s.fallbackFor(typ)
	desc, err := s.r.Resolve(o.ClassName(), fallback)
	if err != nil {
		return err
	}

	if desc.IsEnum() {
		ev, err := s.deserializeEnum(o, desc)
		if err != nil {
			return err
		}
		if !ev.Type().AssignableTo(typ) {
			if !ev.Type().ConvertibleTo(typ) {
				return merr.WrapErrStructuralMismatch(opDeserialize, desc.Name(), "",
					ev.Type().String(), typ.String())
			}
			ev = ev.Convert(typ)
		}
		dst.Set(ev)
		return nil
	}

	pv := desc.New()
	if !pv.Type().AssignableTo(typ) {
		return merr.WrapErrStructuralMismatch(opDeserialize, desc.Name(), "",
			pv.Type().String(), typ.String())
	}
	if err := s.assignMembers(pv.Elem(), desc, o); err != nil {
		return err
	}
	dst.Set(pv)
	return nil
}

// fallbackFor 从目标声明类型推导解析回退描述符。
// 接口目标无法推导，返回 nil（此时类型名必须精确解析）。
func (s *Serde) fallbackFor(typ reflect.Type) *registry.Descriptor {
	lookup := typ
	if typ.Kind() == reflect.Pointer {
		lookup = typ.Elem()
	}
	if lookup.Kind() == reflect.Interface {
		return nil
	}
	if desc, ok := s.r.LookupType(lookup); ok {
		return desc
	}
	return nil
}

// deserializeEnum 从枚举记录恢复枚举值：
// 读取保留成员 ENUM_VALUE_KEY 中的变体名并在变体表中查找。
func (s *Serde) deserializeEnum(o *wire.Object, desc *registry.Descriptor) (reflect.Value, error) {
	m, ok := o.Member(wire.EnumValueKey)
	if !ok {
		return reflect.Value{}, merr.WrapErrEnumValueUnknown(opDeserialize, desc.Name(),
			"<missing "+wire.EnumValueKey+">")
	}
	lit, ok := m.(*wire.Literal)
	if !ok || lit.LiteralKind() != wire.LiteralString {
		return reflect.Value{}, merr.WrapErrEnumValueUnknown(opDeserialize, desc.Name(),
			"<non-string "+wire.EnumValueKey+">")
	}

	ev, ok := desc.EnumValue(lit.StringValue())
	if !ok {
		return reflect.Value{}, merr.WrapErrEnumValueUnknown(opDeserialize, desc.Name(), lit.StringValue())
	}
	return ev, nil
}
