package api

import (
	"bufio"
	"bytes"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const streamChunk = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsWriter sends every Write as one binary message.
type wsWriter struct {
	conn *websocket.Conn
}

func (w wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// handleRunStream reads one text message holding the program, streams the
// printed bytes as binary messages in chunks of up to streamChunk bytes,
// then sends the run result as a JSON text message and closes.
func (s *Server) handleRunStream(ectx echo.Context) error {
	conn, err := upgrader.Upgrade(ectx.Response(), ectx.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		s.logger.Error("websocket upgrade", zap.Error(err))
		return nil
	}
	defer conn.Close()

	conn.SetReadLimit(s.MaxProgramBytes)
	_, src, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug("stream read", zap.Error(err))
		return nil
	}

	p, h, _, err := s.storeProgram(src)
	if err != nil {
		return s.closeWithError(conn, err)
	}

	out := bufio.NewWriterSize(wsWriter{conn: conn}, streamChunk)
	resp, err := s.execute(p, h, out)
	if err != nil {
		return s.closeWithError(conn, err)
	}
	if err := out.Flush(); err != nil {
		s.logger.Debug("stream flush", zap.Error(err))
		return nil
	}

	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Debug("stream result", zap.Error(err))
		return nil
	}
	err = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		s.logger.Debug("stream close", zap.Error(err))
	}
	return nil
}

func (s *Server) closeWithError(conn *websocket.Conn, err error) error {
	reason := err.Error()
	// control frames carry at most 125 bytes
	if len(reason) > 120 {
		reason = reason[:120]
	}
	msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, reason)
	if werr := conn.WriteMessage(websocket.CloseMessage, msg); werr != nil {
		s.logger.Debug("stream close", zap.Error(werr))
	}
	return nil
}

// limitedBuffer keeps the first max bytes written and drops the rest.
type limitedBuffer struct {
	bytes.Buffer
	max       int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.Len()
	if room < len(p) {
		b.truncated = true
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}
