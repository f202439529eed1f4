package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/entrhq/punch/pkg/attendance"
)

const writeTimeout = 5 * time.Second

// popupConn serializes writes to one popup connection. Writes after the
// popup went away are dropped; the run keeps going.
type popupConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
	s    *Server
}

func (c *popupConn) send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.s.logger.Errorf("failed to encode popup message: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.s.logger.Debugf("popup write failed: %v", err)
	}
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	// Origins were checked by middleware.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Errorf("failed to accept websocket: %v", err)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "popup closed"); closeErr != nil {
			s.logger.Debugf("failed to close websocket: %v", closeErr)
		}
	}()

	s.logger.Infof("popup connected from %s", r.RemoteAddr)
	pc := &popupConn{conn: conn, s: s}

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				s.logger.Debugf("popup read ended: %v", err)
			}
			return
		}
		s.handlePopupMessage(pc, data)
	}
}

func (s *Server) handlePopupMessage(pc *popupConn, data []byte) {
	msg, err := DecodeSelectDates(data)
	if err != nil {
		s.logger.Warnf("rejected popup message: %v", err)
		pc.send(ErrorMessage{Type: TypeError, Error: err.Error()})
		return
	}

	err = s.start("batch", func(ctx context.Context) {
		report, err := s.runner.RunBatch(ctx, msg.Dates, func(rec attendance.DateRecord, err error) {
			pc.send(modified(rec, err))
		})
		if err != nil {
			s.logger.Warnf("batch run ended early: %v", err)
		}
		if report != nil {
			pc.send(RunFinishedMessage{
				Type:   TypeRunFinished,
				RunID:  report.RunID,
				Dates:  len(report.Outcomes),
				Failed: report.Failed(),
			})
		}
	})
	if err != nil {
		pc.send(ErrorMessage{Type: TypeError, Error: err.Error()})
	}
}
