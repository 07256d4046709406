package server

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsMessage is a client message on /ws/generate.
//
//	{"type":"chunk","data":"<base64>"}
//	{"type":"complete","competences":["SQL"],"preset":"classic"}
//	{"type":"reset"}
type wsMessage struct {
	Type        string   `json:"type"`
	Data        string   `json:"data,omitempty"`
	Competences []string `json:"competences,omitempty"`
	Preset      string   `json:"preset,omitempty"`
	StartMarker string   `json:"start_marker,omitempty"`
	EndMarker   string   `json:"end_marker,omitempty"`
}

// wsReply is a server message on /ws/generate. Type is "ack", "result" or
// "error".
type wsReply struct {
	Type        string `json:"type"`
	Received    int64  `json:"received,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Removed     int    `json:"removed,omitempty"`
	Inserted    int    `json:"inserted,omitempty"`
	Status      int    `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
}

// wsSession assembles one document at a time from chunk messages.
type wsSession struct {
	server *Server
	conn   *websocket.Conn
	logger *zerolog.Logger
	buf    bytes.Buffer
	chunks int
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	session := &wsSession{
		server: s,
		conn:   conn,
		logger: zerolog.Ctx(r.Context()),
	}
	session.logger.Debug().Msg("WebSocket connected")
	session.run(r)
}

func (ws *wsSession) run(r *http.Request) {
	ws.conn.SetReadLimit(ws.server.maxBodyBytes())
	_ = ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		var msg wsMessage
		if err := ws.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return
		}
		_ = ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var reply wsReply
		switch msg.Type {
		case "chunk":
			reply = ws.chunk(msg)
		case "complete":
			reply = ws.complete(r, msg)
		case "reset":
			ws.reset()
			reply = wsReply{Type: "ack"}
		default:
			reply = ws.errorReply(badRequest("unknown message type " + msg.Type))
		}

		_ = ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := ws.conn.WriteJSON(reply); err != nil {
			ws.logger.Warn().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (ws *wsSession) chunk(msg wsMessage) wsReply {
	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return ws.errorReply(badRequest("invalid base64 chunk"))
	}
	if int64(ws.buf.Len()+len(data)) > ws.server.config.MaxUploadBytes {
		ws.reset()
		return ws.errorReply(errors.WithStack(ErrUploadTooLarge))
	}
	ws.buf.Write(data)
	ws.chunks++
	return wsReply{Type: "ack", Received: int64(ws.buf.Len())}
}

func (ws *wsSession) complete(r *http.Request, msg wsMessage) wsReply {
	defer ws.reset()

	if ws.buf.Len() == 0 || len(msg.Competences) == 0 {
		return ws.errorReply(badRequest(missingPayload))
	}

	req := generateRequest{
		Competences: msg.Competences,
		Preset:      msg.Preset,
		StartMarker: msg.StartMarker,
		EndMarker:   msg.EndMarker,
	}
	out, res, err := ws.server.rewrite(r, ws.buf.Bytes(), req)
	if err != nil {
		return ws.errorReply(err)
	}
	url, err := ws.server.saveGenerated(out)
	if err != nil {
		return ws.errorReply(err)
	}

	ws.logger.Debug().Int("chunks", ws.chunks).Str("download_url", url).Msg("WebSocket document generated")
	return wsReply{
		Type:        "result",
		DownloadURL: url,
		Removed:     res.Removed,
		Inserted:    len(res.Bullets),
	}
}

func (ws *wsSession) reset() {
	ws.buf.Reset()
	ws.chunks = 0
}

func (ws *wsSession) errorReply(err error) wsReply {
	status, message := statusFor(err)
	event := ws.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = ws.logger.Error()
	}
	event.Err(err).Int("status", status).Msg("WebSocket request failed")
	return wsReply{Type: "error", Status: status, Error: message}
}
