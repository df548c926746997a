package tcp

import (
	"net"
	"sync"

	"go.uber.org/zap"

	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/logx"
)

const sendBufferSize = 256

// LineConn 是一条行分隔 JSON 连接：每条消息一行，写出时补 '\n'。
type LineConn struct {
	transport.Properties
	id        string
	nc        net.Conn
	outChan   chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       logx.Logger
}

func newLineConn(id string, nc net.Conn, l logx.Logger) *LineConn {
	return &LineConn{
		id:      id,
		nc:      nc,
		outChan: make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		log:     l,
	}
}

func (c *LineConn) ID() string {
	return c.id
}

func (c *LineConn) Addr() string {
	return c.nc.RemoteAddr().String()
}

func (c *LineConn) Send(msg []byte) error {
	select {
	case <-c.done:
		return transport.ErrConnClosed
	default:
	}
	select {
	case c.outChan <- msg:
		return nil
	case <-c.done:
		return transport.ErrConnClosed
	default:
		return transport.ErrSendBufferFull
	}
}

func (c *LineConn) Close() {
	c.closeOnce.Do(func() {
		_ = c.nc.Close()
		close(c.done)
	})
}

func (c *LineConn) Done() <-chan struct{} {
	return c.done
}

func (c *LineConn) writeLoop() {
	for {
		select {
		case msg := <-c.outChan:
			if err := c.write(msg); err != nil {
				c.log.Warn("tcp write failed, closing conn", zap.String("conn_id", c.id), zap.Error(err))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *LineConn) write(msg []byte) error {
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg = append(msg[:len(msg):len(msg)], '\n')
	}
	_, err := c.nc.Write(msg)
	return err
}
