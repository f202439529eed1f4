package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/entrhq/punch/pkg/attendance"
)

const maxRemoteBody = 64 << 10

type remoteResponse struct {
	Status string `json:"status"`
	Punch  string `json:"punch,omitempty"`
	Dates  int    `json:"dates,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleRemote accepts a content-script request and runs it in the
// background.
func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRemoteBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, remoteResponse{Status: "rejected", Error: err.Error()})
		return
	}

	req, p, err := DecodeRemote(data)
	if err != nil {
		s.logger.Warnf("rejected remote request: %v", err)
		writeJSON(w, http.StatusBadRequest, remoteResponse{Status: "rejected", Error: err.Error()})
		return
	}

	err = s.start("punch", func(ctx context.Context) {
		report, err := s.runner.RunPunch(ctx, p, req.Value, func(rec attendance.DateRecord, err error) {
			if err != nil {
				s.logger.Warnf("%s on %s failed: %v", p, rec.Day, err)
				return
			}
			s.logger.Infof("%s on %s: %s", p, rec.Day, rec.Label())
		})
		if err != nil {
			s.logger.Warnf("punch run ended early: %v", err)
		}
		if report != nil {
			s.logger.Infof("punch run %s: %d/%d failed", report.RunID, report.Failed(), len(report.Outcomes))
		}
	})
	if errors.Is(err, ErrBusy) {
		writeJSON(w, http.StatusConflict, remoteResponse{Status: "busy", Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, remoteResponse{Status: "rejected", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, remoteResponse{Status: "accepted", Punch: p.String(), Dates: len(req.Value)})
}
