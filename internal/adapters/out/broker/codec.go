// Package broker carries committed order snapshots between service instances.
//
// Every transport encodes a snapshot as the JSON document served by the HTTP API,
// so a message published by one instance can be decoded by any other regardless of
// the store it runs on. Local is the single-process transport; the redisbus, amqpbus
// and pgnotify subpackages fan messages out across processes.
package broker

import (
	"encoding/json"
	"fmt"

	"carservice/internal/core/domain/model/order"
)

// Encode serialises a snapshot for the wire.
func Encode(snapshot order.Snapshot) ([]byte, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order %s: %w", snapshot.ID, err)
	}
	return body, nil
}

// Decode parses a message produced by Encode.
func Decode(body []byte) (order.Snapshot, error) {
	var snapshot order.Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return order.Snapshot{}, fmt.Errorf("failed to decode order update: %w", err)
	}
	if snapshot.ID == "" {
		return order.Snapshot{}, fmt.Errorf("failed to decode order update: missing id")
	}
	return snapshot, nil
}
