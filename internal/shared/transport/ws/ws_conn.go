package ws

// Handshake 在 need_secret 模式下由服务端首先下发，之后双向帧都用该 key 做 AES-CBC 并 gzip。
type Handshake struct {
	Key string `json:"key"`
}

type handshakeFrame struct {
	Type    string    `json:"type"`
	Payload Handshake `json:"payload"`
}

const (
	HandshakeMsg = "handshake"
	SecretKey    = "secretKey"
)
