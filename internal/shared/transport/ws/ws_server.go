package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"Nightfall/internal/shared/security"
	"Nightfall/internal/shared/transport"
	"Nightfall/internal/shared/utils"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

// WsConn 一个 WebSocket 帧承载一条完整 JSON 消息。
type WsConn struct {
	transport.Properties
	id         string
	conn       *websocket.Conn
	handler    transport.Handler
	outChan    chan []byte
	needSecret bool
	limiter    *rate.Limiter
	done       chan struct{}
	closeOnce  sync.Once
	wmu        sync.Mutex // gorilla 只允许一个并发写者，握手与写循环共用
	log        logx.Logger
}

func NewWsConn(id string, wsConn *websocket.Conn, h transport.Handler, needSecret bool, limiter *rate.Limiter, l logx.Logger) *WsConn {
	return &WsConn{
		id:         id,
		conn:       wsConn,
		handler:    h,
		outChan:    make(chan []byte, 1000),
		needSecret: needSecret,
		limiter:    limiter,
		done:       make(chan struct{}),
		log:        l,
	}
}

func (s *WsConn) ID() string {
	return s.id
}

func (s *WsConn) Addr() string {
	return s.conn.RemoteAddr().String()
}

func (s *WsConn) Send(msg []byte) error {
	select {
	case <-s.done:
		return transport.ErrConnClosed
	default:
	}
	select {
	case s.outChan <- msg:
		return nil
	case <-s.done:
		return transport.ErrConnClosed
	default:
		return transport.ErrSendBufferFull
	}
}

// Run 启动写循环并在当前 goroutine 读取，连接断开后返回。
func (s *WsConn) Run() {
	go s.writeMsgLoop()
	if s.needSecret {
		s.handshake()
	}
	s.handler.OnOpen(s)
	defer s.handler.OnClose(s)
	s.readMsgLoop()
}

func (s *WsConn) readMsgLoop() {
	defer func() {
		if r := recover(); r != nil {
			err := errx.ErrInternal.WithCause(fmt.Errorf("panic: %v", r))
			logx.ReportSysErrorWithLoggerContext(context.Background(), s.log,
				logx.NewSysLog("ws.read_loop", err), zap.String("conn_id", s.id))
		}
		s.Close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("ws read stopped", zap.String("conn_id", s.id), zap.Error(err))
			}
			return
		}

		if s.needSecret {
			key, _ := s.GetProperty(SecretKey).(string)
			plain, err := security.OpenFrame(data, key)
			if err != nil {
				s.log.Warn("ws frame decrypt failed, re-handshake", zap.String("conn_id", s.id), zap.Error(err))
				s.handshake()
				continue
			}
			data = plain
		}

		if !transport.Allow(s.limiter) {
			s.handler.OnReject(s, errx.ErrRateLimited)
			continue
		}
		s.handler.OnMessage(context.Background(), s, data)
	}
}

func (s *WsConn) writeMsgLoop() {
	for {
		select {
		case msg := <-s.outChan:
			if err := s.write(msg); err != nil {
				s.log.Warn("ws write failed, closing conn", zap.String("conn_id", s.id), zap.Error(err))
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *WsConn) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.done)
	})
}

func (s *WsConn) Done() <-chan struct{} {
	return s.done
}

func (s *WsConn) write(msg []byte) error {
	if !s.needSecret {
		return s.writeFrame(websocket.TextMessage, msg)
	}
	key, _ := s.GetProperty(SecretKey).(string)
	frame, err := security.SealFrame(msg, key)
	if err != nil {
		return err
	}
	// 压缩后的密文是二进制字节流，必须走 BinaryMessage
	return s.writeFrame(websocket.BinaryMessage, frame)
}

func (s *WsConn) writeFrame(messageType int, data []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// handshake 下发密钥。握手帧只压缩不加密。
func (s *WsConn) handshake() {
	secretKey, _ := s.GetProperty(SecretKey).(string)
	if secretKey == "" {
		secretKey = utils.RandSeq(16)
		s.SetProperty(SecretKey, secretKey)
	}

	data, err := json.Marshal(handshakeFrame{Type: HandshakeMsg, Payload: Handshake{Key: secretKey}})
	if err != nil {
		s.log.Error("ws handshake marshal json error", zap.Error(err))
		return
	}
	zipData, err := security.Zip(data)
	if err != nil {
		s.log.Error("ws handshake zip error", zap.Error(err))
		return
	}
	if err := s.writeFrame(websocket.BinaryMessage, zipData); err != nil {
		s.log.Warn("ws handshake write error", zap.String("conn_id", s.id), zap.Error(err))
	}
}
