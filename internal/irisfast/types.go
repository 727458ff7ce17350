package irisfast

// Message is one chat event as delivered by the iris bridge, over either
// the polling endpoint or the WebSocket stream.
type Message struct {
	Room   string  `json:"room"`
	Msg    string  `json:"msg"`
	Sender *string `json:"sender,omitempty"`
	JSON   *struct {
		UserID string `json:"user_id"`
	} `json:"json,omitempty"`
}

// ReplyRequest is the /reply payload for text, image and audio sends.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// ImageReplyRequest matches ReplyRequest but keeps image payloads
// distinct for logging and size accounting on the bridge side.
type ImageReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// Config mirrors the bridge's /config response.
type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"polling_speed"`
	MessageRate       int    `json:"message_rate"`
	WebserverEndpoint string `json:"webserver_endpoint"`
}

type DecryptRequest struct {
	Data string `json:"data"`
}

type DecryptResponse struct {
	Decrypted string `json:"decrypted"`
}

// WebSocketState tracks the stream connection lifecycle.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

func (s WebSocketState) String() string {
	return string(s)
}
