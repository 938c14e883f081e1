package codec

import (
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
)

// 本包提供值树与字节序列之间的编解码器。
//
// ProtoCodec 为跨进程互通的权威格式，JSONCodec 为人类可读的
// 诊断格式（inspect 工具与日志用），两者可独立往返全部变体。

// Codec 将值树编码为字节序列，或从字节序列解码出值树。
type Codec interface {
	// Name 返回编解码器的标识，用于日志与配置。
	Name() string

	Marshal(v wire.Value) ([]byte, error)
	Unmarshal(data []byte) (wire.Value, error)
}

var (
	_ Codec = (*ProtoCodec)(nil)
	_ Codec = (*JSONCodec)(nil)
)
