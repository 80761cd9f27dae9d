package events

import "encoding/json"

// SSE event names sent on GET /events.
const (
	DisplayUpdate   = "display.update"
	BatteryState    = "battery.state"
	BatteryShutdown = "battery.shutdown"
)

// Event is one SSE message: the event name and its JSON payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// DisplayUpdateEvent is the typed payload for display.update.
type DisplayUpdateEvent struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Ts    int64  `json:"ts"`
}

// BatteryStateEvent is the typed payload for battery.state.
type BatteryStateEvent struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Percentage float64 `json:"percentage"`
	Ts         int64   `json:"ts"`
}

// BatteryShutdownEvent is the typed payload for battery.shutdown.
type BatteryShutdownEvent struct {
	Message   string `json:"message"`
	Threshold int    `json:"threshold"`
	Ts        int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.BatteryStateEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
