package wire

import (
	"bytes"
)

// 本包实现查询计划的线上值模型（Wire Value Model）：
// 一棵由 Literal / List / Map / Object 四种变体组成的标签联合树。
//
// 设计目标：
//   - 纯数据结构，不携带任何序列化行为；编解码由 serde 与 codec 包负责。
//   - 值一经构造即视为不可变，树在单次调用内创建并使用，不做任何跨调用缓存。
//   - 变体之间不存在任何隐式转换，构造必须通过显式的构造函数完成。

const (
	// NullClassName 为空对象哨兵的保留类型名。
	// 类型名等于该值的 Object 表示逻辑上的 null，其成员内容被忽略。
	NullClassName = "null"

	// EnumValueKey 为枚举记录的保留成员名，
	// 对应成员为一个字符串 Literal，内容为枚举常量的名字。
	// 该键不允许作为普通字段名使用。
	EnumValueKey = "ENUM_VALUE_KEY"
)

// Kind 表示 Value 的变体类别。
type Kind uint8

const (
	KindLiteral Kind = iota + 1
	KindList
	KindMap
	KindObject
)

var kindNames = map[Kind]string{
	KindLiteral: "literal",
	KindList:    "list",
	KindMap:     "map",
	KindObject:  "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value 是线上值树中的一个节点。
//
// 具体变体只有 *Literal、*List、*Map、*Object 四种，
// 通过私有方法封闭实现集合，外部无法引入新的变体。
type Value interface {
	Kind() Kind

	isValue()
}

// 编译期断言：确保四种变体都实现了 Value 接口。
var (
	_ Value = (*Literal)(nil)
	_ Value = (*List)(nil)
	_ Value = (*Map)(nil)
	_ Value = (*Object)(nil)
)

// LiteralKind 表示 Literal 承载的标量类别，与 LiteralField 的 oneof 一一对应。
type LiteralKind uint8

const (
	LiteralBool LiteralKind = iota + 1
	LiteralInt
	LiteralLong
	LiteralFloat
	LiteralDouble
	LiteralString
	LiteralBytes
)

var literalKindNames = map[LiteralKind]string{
	LiteralBool:   "bool",
	LiteralInt:    "int",
	LiteralLong:   "long",
	LiteralFloat:  "float",
	LiteralDouble: "double",
	LiteralString: "string",
	LiteralBytes:  "bytes",
}

func (k LiteralKind) String() string {
	if name, ok := literalKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Literal 承载单个标量值，七种标量类别中恰好有一种被填充。
type Literal struct {
	kind LiteralKind

	b   bool
	i64 int64
	f64 float64
	s   string
	bs  []byte
}

func (l *Literal) Kind() Kind               { return KindLiteral }
func (l *Literal) isValue()                 {}
func (l *Literal) LiteralKind() LiteralKind { return l.kind }

// Bool 构造一个布尔 Literal。
func Bool(v bool) *Literal {
	return &Literal{kind: LiteralBool, b: v}
}

// Int 构造一个 32 位整型 Literal。
func Int(v int32) *Literal {
	return &Literal{kind: LiteralInt, i64: int64(v)}
}

// Long 构造一个 64 位整型 Literal。
func Long(v int64) *Literal {
	return &Literal{kind: LiteralLong, i64: v}
}

// Float 构造一个 32 位浮点 Literal。
func Float(v float32) *Literal {
	return &Literal{kind: LiteralFloat, f64: float64(v)}
}

// Double 构造一个 64 位浮点 Literal。
func Double(v float64) *Literal {
	return &Literal{kind: LiteralDouble, f64: v}
}

// String 构造一个 UTF-8 字符串 Literal。
func String(v string) *Literal {
	return &Literal{kind: LiteralString, s: v}
}

// Bytes 构造一个字节序列 Literal。
// 为保证不可变性，内容会被拷贝一份。
func Bytes(v []byte) *Literal {
	return &Literal{kind: LiteralBytes, bs: bytes.Clone(v)}
}

// 各标量类别的取值方法。
// 调用方需要先通过 LiteralKind 判断类别，类别不符时返回对应零值。
func (l *Literal) BoolValue() bool      { return l.b }
func (l *Literal) IntValue() int32      { return int32(l.i64) }
func (l *Literal) LongValue() int64     { return l.i64 }
func (l *Literal) FloatValue() float32  { return float32(l.f64) }
func (l *Literal) DoubleValue() float64 { return l.f64 }
func (l *Literal) StringValue() string  { return l.s }
func (l *Literal) BytesValue() []byte   { return l.bs }

// List 为有序的值序列，元素顺序有语义。
type List struct {
	elems []Value
}

func (l *List) Kind() Kind { return KindList }
func (l *List) isValue()   {}

// NewList 用给定元素构造 List。
func NewList(elems ...Value) *List {
	return &List{elems: elems}
}

func (l *List) Len() int {
	return len(l.elems)
}

// Elems 返回内部元素切片，调用方不得修改。
func (l *List) Elems() []Value {
	return l.elems
}

// Map 为字符串键到值的映射，键唯一且无序。
type Map struct {
	entries map[string]Value
}

func (m *Map) Kind() Kind { return KindMap }
func (m *Map) isValue()   {}

// NewMap 用给定映射构造 Map，映射的所有权转移给 Map，调用方不得再修改。
func NewMap(entries map[string]Value) *Map {
	if entries == nil {
		entries = map[string]Value{}
	}
	return &Map{entries: entries}
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Entries 返回内部映射，调用方不得修改。
func (m *Map) Entries() map[string]Value {
	return m.entries
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Object 为对象记录：一个类型名加一组具名成员。
type Object struct {
	className string
	members   map[string]Value
}

func (o *Object) Kind() Kind { return KindObject }
func (o *Object) isValue()   {}

// NewObject 用类型名与成员映射构造 Object，映射的所有权转移给 Object。
func NewObject(className string, members map[string]Value) *Object {
	if members == nil {
		members = map[string]Value{}
	}
	return &Object{className: className, members: members}
}

func (o *Object) ClassName() string {
	return o.className
}

// Members 返回内部成员映射，调用方不得修改。
func (o *Object) Members() map[string]Value {
	return o.members
}

func (o *Object) Member(name string) (Value, bool) {
	v, ok := o.members[name]
	return v, ok
}

// nullObject 为共享的空对象哨兵。
// 成员映射为空且不可达修改入口，可安全复用。
var nullObject = &Object{className: NullClassName, members: map[string]Value{}}

// Null 返回空对象哨兵，任何上下文下序列化 null 都得到同一棵子树。
func Null() *Object {
	return nullObject
}

// IsNull 判断对象是否为空对象哨兵。
// 只看类型名，成员内容被忽略。
func (o *Object) IsNull() bool {
	return o.className == NullClassName
}

// Equal 对两棵值树做深度结构比较。
// List 的元素顺序有语义，Map 与 Object 的成员顺序没有。
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case *Literal:
		bv := b.(*Literal)
		if av.kind != bv.kind {
			return false
		}
		if av.kind == LiteralBytes {
			return bytes.Equal(av.bs, bv.bs)
		}
		return av.b == bv.b && av.i64 == bv.i64 && av.f64 == bv.f64 && av.s == bv.s

	case *List:
		bv := b.(*List)
		if len(av.elems) != len(bv.elems) {
			return false
		}
		for i := range av.elems {
			if !Equal(av.elems[i], bv.elems[i]) {
				return false
			}
		}
		return true

	case *Map:
		bv := b.(*Map)
		return equalEntries(av.entries, bv.entries)

	case *Object:
		bv := b.(*Object)
		if av.IsNull() || bv.IsNull() {
			// 空对象哨兵只比较类型名，成员内容被忽略。
			return av.IsNull() && bv.IsNull()
		}
		if av.className != bv.className {
			return false
		}
		return equalEntries(av.members, bv.members)
	}
	return false
}

func equalEntries(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !Equal(va, vb) {
			return false
		}
	}
	return true
}
