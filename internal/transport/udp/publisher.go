// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	applog "sightread/internal/log"
)

/*
UDP Packet Structure (BigEndian header, JSON payload)

+---------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description      |
|-----------------|-----------|--------------|------------------|
| Sequence Number | uint32    | 4            | Monotonic        |
| Payload         | JSON      | rest         | Event envelope   |
+---------------------------------------------------------------+

The sequence number lets receivers detect dropped datagrams; events
themselves carry their own timestamps.
*/

// Publisher sends each trainer event as one JSON datagram through a
// Sender. Stateless apart from the sequence counter, so a single
// instance serves all event types.
type Publisher struct {
	sender      *Sender
	sequenceNum uint32
}

// NewPublisher creates a Publisher over the given sender.
func NewPublisher(sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	return &Publisher{sender: sender}, nil
}

// Publish encodes event as JSON and sends it prefixed with the next
// sequence number. Oversized or unencodable events are dropped with a
// log line; UDP delivery is best-effort by design of the protocol.
func (p *Publisher) Publish(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		applog.Errorf("transport: encoding UDP event: %v", err)
		return err
	}

	seq := atomic.AddUint32(&p.sequenceNum, 1)
	packet := make([]byte, 4+len(payload))
	packet[0] = byte(seq >> 24)
	packet[1] = byte(seq >> 16)
	packet[2] = byte(seq >> 8)
	packet[3] = byte(seq)
	copy(packet[4:], payload)

	if err := p.sender.Send(packet); err != nil {
		applog.Debugf("transport: UDP send failed: %v", err)
		return err
	}
	return nil
}

// Close closes the underlying sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}
