package codec

import (
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// ProtoCodec 将值树编码为 protobuf 线格式。
//
// 线格式的顶层消息是对象记录（ObjectField），
// 因此该编解码器只接受 Object 作为顶层值。
type ProtoCodec struct{}

func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{}
}

func (c *ProtoCodec) Name() string {
	return "proto"
}

func (c *ProtoCodec) Marshal(v wire.Value) ([]byte, error) {
	if v == nil {
		return nil, merr.WrapErrParameterMissing("value", "marshal")
	}
	o, ok := v.(*wire.Object)
	if !ok {
		return nil, merr.WrapErrStructuralMismatch("marshal", "", "",
			v.Kind().String(), wire.KindObject.String(), "proto codec requires an object record at top level")
	}
	return wire.MarshalObject(o)
}

func (c *ProtoCodec) Unmarshal(data []byte) (wire.Value, error) {
	return wire.UnmarshalObject(data)
}
