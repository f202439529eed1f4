package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/entrhq/punch/pkg/attendance"
)

// Message types exchanged with the popup. P2B flows popup to core, B2P the
// other way.
const (
	TypeSelectDates        = "P2B@SelectDates"
	TypeModifiedAttendance = "B2P@ModifiedAttendance"
	TypeRunFinished        = "B2P@RunFinished"
	TypeError              = "B2P@Error"
)

// ErrUnknownMessage is returned for an envelope whose type is not handled.
var ErrUnknownMessage = errors.New("unknown message type")

// SelectDatesMessage asks for a batch run over dates.
type SelectDatesMessage struct {
	Type  string                  `mapstructure:"type" json:"type"`
	Dates []attendance.DateRecord `mapstructure:"dates" json:"dates"`
}

// ModifiedAttendanceMessage reports one processed date.
type ModifiedAttendanceMessage struct {
	Type  string                `json:"type"`
	Date  attendance.DateRecord `json:"date"`
	Label string                `json:"label"`
	Error string                `json:"error,omitempty"`
}

// RunFinishedMessage closes a run.
type RunFinishedMessage struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id"`
	Dates  int    `json:"dates"`
	Failed int    `json:"failed"`
}

// ErrorMessage reports a request that could not be served.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// RemoteRequest is the content-script request. Value holds one edit page
// link or a list of them.
type RemoteRequest struct {
	Type  string   `mapstructure:"type" json:"type"`
	Value []string `mapstructure:"value" json:"value"`
}

// envelope splits a raw message into its type and its fields.
func envelope(data []byte) (string, map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("invalid message: %w", err)
	}
	kind, _ := raw["type"].(string)
	if kind == "" {
		return "", nil, fmt.Errorf("invalid message: missing type")
	}
	return kind, raw, nil
}

// decode maps envelope fields onto out. Single values are accepted where
// a list is expected.
func decode(fields map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("invalid message fields: %w", err)
	}
	return nil
}

// DecodeSelectDates parses a popup batch request.
func DecodeSelectDates(data []byte) (SelectDatesMessage, error) {
	kind, fields, err := envelope(data)
	if err != nil {
		return SelectDatesMessage{}, err
	}
	if kind != TypeSelectDates {
		return SelectDatesMessage{}, fmt.Errorf("%w: %s", ErrUnknownMessage, kind)
	}

	var msg SelectDatesMessage
	if err := decode(fields, &msg); err != nil {
		return SelectDatesMessage{}, err
	}
	for i, d := range msg.Dates {
		if !d.Day.Valid() {
			return SelectDatesMessage{}, fmt.Errorf("invalid date at position %d: %s", i, d.Day)
		}
	}
	return msg, nil
}

// DecodeRemote parses a content-script request.
func DecodeRemote(data []byte) (RemoteRequest, attendance.Punch, error) {
	_, fields, err := envelope(data)
	if err != nil {
		return RemoteRequest{}, 0, err
	}

	var req RemoteRequest
	if err := decode(fields, &req); err != nil {
		return RemoteRequest{}, 0, err
	}
	p, err := attendance.ParsePunch(req.Type)
	if err != nil {
		return RemoteRequest{}, 0, fmt.Errorf("%w: %s", ErrUnknownMessage, req.Type)
	}
	if len(req.Value) == 0 {
		return RemoteRequest{}, 0, fmt.Errorf("invalid message: no links")
	}
	return req, p, nil
}

func modified(rec attendance.DateRecord, err error) ModifiedAttendanceMessage {
	msg := ModifiedAttendanceMessage{
		Type:  TypeModifiedAttendance,
		Date:  rec,
		Label: rec.ResultLabel(err),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}
