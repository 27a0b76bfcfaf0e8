package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HandlingStatus enumerates remediation workflow states for a ticket.
type HandlingStatus string

const (
	HandlingStatusAlerted      HandlingStatus = "alerted"
	HandlingStatusAcknowledged HandlingStatus = "acknowledged"
	HandlingStatusScheduled    HandlingStatus = "scheduled"
	HandlingStatusCompleted    HandlingStatus = "completed"
)

// HandlingStatuses lists every status in workflow order.
var HandlingStatuses = []HandlingStatus{
	HandlingStatusAlerted,
	HandlingStatusAcknowledged,
	HandlingStatusScheduled,
	HandlingStatusCompleted,
}

// ParseHandlingStatus validates a requested status. Empty input is rejected; use
// HandlingStatusOrDefault when reading stored data.
func ParseHandlingStatus(raw string) (HandlingStatus, error) {
	status := HandlingStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range HandlingStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown handling status %q", raw)
}

// HandlingStatusOrDefault reads a stored status; absent or unknown values are alerted.
func HandlingStatusOrDefault(raw *string) HandlingStatus {
	if raw == nil {
		return HandlingStatusAlerted
	}
	status, err := ParseHandlingStatus(*raw)
	if err != nil {
		return HandlingStatusAlerted
	}
	return status
}

// OrDefault returns alerted for the zero value and unknown statuses.
func (s HandlingStatus) OrDefault() HandlingStatus {
	raw := string(s)
	return HandlingStatusOrDefault(&raw)
}

// UnmarshalJSON reads null and unknown statuses as alerted.
func (s *HandlingStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = HandlingStatusOrDefault(raw)
	return nil
}
