package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lk2023060901/planwire-go/internal/plan/codec"
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// 本包实现对象记录在字节流上的成帧传输。
//
// Pipeline（写出 Send）：
//   record --> codec.Marshal --> [compress?] --> frame --> w
//
// Pipeline（读入 Recv）：
//   r --> frame --> [decompress?] --> codec.Unmarshal --> record
//
// 帧格式：
//   | length (4B, big endian) | flags (1B) | body (length bytes) |
//
// length 为 body 的字节数，flags 的 bit0 表示 body 是否经过压缩。

const (
	frameHeaderSize = 5

	flagCompressed = byte(1 << 0)

	// defaultMaxFrameSize 为单帧 body 的默认上限，防止坏长度导致超大分配。
	defaultMaxFrameSize = 64 << 20
)

// Options 用于构造 Transport 的依赖注入参数。
type Options struct {
	Codec      codec.Codec // 允许为 nil（内部会用 ProtoCodec）
	Compressor Compressor  // 允许为 nil（内部会用 NopCompressor）

	// EnableCompression 是否启用压缩（影响压缩行为与帧 flags）。
	EnableCompression bool

	// MaxFrameSize 单帧 body 的字节数上限，<= 0 时使用默认值。
	MaxFrameSize int
}

// Transport 在字节流上收发对象记录。
type Transport struct {
	codec      codec.Codec
	compressor Compressor

	compress     bool
	maxFrameSize int
}

// New 创建一个基于给定依赖的 Transport。
func New(opts Options) (*Transport, error) {
	if opts.EnableCompression && opts.Compressor == nil {
		return nil, fmt.Errorf("transport: compression enabled but compressor is nil")
	}

	t := &Transport{
		codec:        opts.Codec,
		compressor:   opts.Compressor,
		compress:     opts.EnableCompression,
		maxFrameSize: opts.MaxFrameSize,
	}
	if t.codec == nil {
		t.codec = codec.NewProtoCodec()
	}
	if t.compressor == nil {
		t.compressor = NopCompressor{}
	}
	if t.maxFrameSize <= 0 {
		t.maxFrameSize = defaultMaxFrameSize
	}
	return t, nil
}

// Send 将对象记录编码为一帧并写入到底层流。
func (t *Transport) Send(w io.Writer, o *wire.Object) error {
	if w == nil {
		return fmt.Errorf("transport: writer is nil")
	}
	if o == nil {
		return merr.WrapErrParameterMissing("record", "send")
	}

	body, err := t.codec.Marshal(o)
	if err != nil {
		return fmt.Errorf("transport: marshal failed: %w", err)
	}

	var flags byte
	if t.compress && len(body) > 0 {
		packet, err := t.compressor.Compress(nil, body)
		if err != nil {
			return fmt.Errorf("transport: compress failed: %w", err)
		}
		body = packet
		flags |= flagCompressed
	}

	if len(body) > t.maxFrameSize {
		return fmt.Errorf("transport: frame body %d bytes exceeds limit %d", len(body), t.maxFrameSize)
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	header[4] = flags

	if _, err := w.Write(header); err != nil {
		return merr.WrapErrIoFailed("frame header", err)
	}
	if _, err := w.Write(body); err != nil {
		return merr.WrapErrIoFailed("frame body", err)
	}
	return nil
}

// Recv 从底层流中读取一帧并解码出对象记录。
//
// 流正常结束（帧边界上的 EOF）原样返回 io.EOF，
// 半截帧返回可重试的截断错误。
func (t *Transport) Recv(r io.Reader) (*wire.Object, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: reader is nil")
	}

	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, merr.WrapErrIoUnexpectEOF("frame header", err)
	}

	length := binary.BigEndian.Uint32(header[0:4])
	flags := header[4]
	if int(length) > t.maxFrameSize {
		return nil, merr.WrapErrWireMalformed("frame", fmt.Sprintf("body %d bytes exceeds limit %d", length, t.maxFrameSize))
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, merr.WrapErrIoUnexpectEOF("frame body", err)
	}

	if flags&flagCompressed != 0 {
		if len(body) == 0 {
			return nil, merr.WrapErrWireMalformed("frame", "compressed body is empty")
		}
		plain, err := t.compressor.Decompress(nil, body)
		if err != nil {
			return nil, fmt.Errorf("transport: decompress failed: %w", err)
		}
		body = plain
	}

	v, err := t.codec.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("transport: unmarshal failed: %w", err)
	}
	o, ok := v.(*wire.Object)
	if !ok {
		return nil, merr.WrapErrWireMalformed("frame", "top-level value is not an object record")
	}
	return o, nil
}
