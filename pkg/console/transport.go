package console

import (
	"errors"
	"time"
)

// 传输层错误
var (
	// ErrTransportClosed 传输未打开或已关闭
	ErrTransportClosed = errors.New("transport is not open")
	// ErrAlreadyOpen 传输已处于打开状态
	ErrAlreadyOpen = errors.New("transport is already open")
)

// Transport 设备字节流传输抽象（串口控制台或SSH shell通道）
// Read 为超时有界读取：期限内无数据时返回空切片与nil错误，
// 硬故障（链路断开、设备拔出）返回非nil错误。
type Transport interface {
	Open() error
	Write(p []byte) error
	Read(timeout time.Duration) ([]byte, error)
	Close() error
	IsOpen() bool
}
