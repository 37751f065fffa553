package moonraker

import (
	"encoding/json"
	"fmt"
)

// GCodeEntry is one line of the controller's append-only gcode response
// store. Time is the Klippy eventtime, monotonically increasing within a
// session.
type GCodeEntry struct {
	Time    float64 `json:"time"`
	Message string  `json:"message"`
	Type    string  `json:"type"`
}

type queryResponse struct {
	Result struct {
		EventTime float64                   `json:"eventtime"`
		Status    map[string]map[string]any `json:"status"`
	} `json:"result"`
}

type gcodeStoreResponse struct {
	Result struct {
		GCodeStore []GCodeEntry `json:"gcode_store"`
	} `json:"result"`
}

// APIError is a non-2xx reply from Moonraker.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	msg := string(e.Body)
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	return fmt.Sprintf("moonraker status %d: %s", e.StatusCode, msg)
}
