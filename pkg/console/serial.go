package console

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialParams 串口连接参数，创建后不可变
type SerialParams struct {
	Device   string `json:"device"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// SerialTransport 串口控制台传输
type SerialTransport struct {
	params SerialParams
	port   serial.Port
	mutex  sync.Mutex
	opened bool
}

// NewSerialTransport 创建串口传输
func NewSerialTransport(params SerialParams) *SerialTransport {
	if params.BaudRate <= 0 {
		params.BaudRate = 9600
	}
	if params.DataBits <= 0 {
		params.DataBits = 8
	}
	if params.StopBits <= 0 {
		params.StopBits = 1
	}
	return &SerialTransport{params: params}
}

// Open 打开串口设备
func (t *SerialTransport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.opened {
		return ErrAlreadyOpen
	}

	mode := &serial.Mode{
		BaudRate: t.params.BaudRate,
		DataBits: t.params.DataBits,
		Parity:   parseParity(t.params.Parity),
		StopBits: parseStopBits(t.params.StopBits),
	}

	port, err := serial.Open(t.params.Device, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial device %s: %w", t.params.Device, err)
	}

	t.port = port
	t.opened = true
	return nil
}

// Write 写入字节流
func (t *SerialTransport) Write(p []byte) error {
	t.mutex.Lock()
	port, open := t.port, t.opened
	t.mutex.Unlock()

	if !open {
		return ErrTransportClosed
	}
	if _, err := port.Write(p); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// Read 超时有界读取：期限内无数据返回空切片
func (t *SerialTransport) Read(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	port, open := t.port, t.opened
	t.mutex.Unlock()

	if !open {
		return nil, ErrTransportClosed
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("serial set read timeout failed: %w", err)
	}

	buf := make([]byte, 4096)
	n, err := port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("serial read failed: %w", err)
	}
	return buf[:n], nil
}

// Close 关闭串口
func (t *SerialTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("serial close failed: %w", err)
	}
	return nil
}

// IsOpen 返回串口是否打开
func (t *SerialTransport) IsOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.opened
}

// parseParity 解析校验位配置
func parseParity(s string) serial.Parity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "even":
		return serial.EvenParity
	case "odd":
		return serial.OddParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// parseStopBits 解析停止位配置
func parseStopBits(n int) serial.StopBits {
	switch n {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}
