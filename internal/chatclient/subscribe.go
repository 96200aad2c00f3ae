package chatclient

import (
	"encoding/json"
	"log"
)

// Subscribe registers fn for event on s, decoding the payload into T first.
// Payloads that do not decode are logged and skipped.
func Subscribe[T any](s Subscriber, event string, fn func(T)) {
	s.On(event, func(data json.RawMessage) {
		var v T
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &v); err != nil {
				log.Printf("ERROR: decoding %s payload: %v", event, err)
				return
			}
		}
		fn(v)
	})
}
