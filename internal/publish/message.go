// Package publish sends per-frame finger counts to external consumers as
// CBOR messages.
package publish

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/ayusman/fingercount/internal/app"
)

// Message is the CBOR form of a frame result. Status is carried by name and
// the timestamp as Unix milliseconds.
type Message struct {
	Type      string   `cbor:"type"`
	Frame     int      `cbor:"frame"`
	Fingers   int      `cbor:"fingers"`
	Status    string   `cbor:"status"`
	Area      float64  `cbor:"area"`
	Defects   int      `cbor:"defects"`
	Contour   [][2]int `cbor:"contour,omitempty"`
	Timestamp int64    `cbor:"timestamp"`
}

// MessageType is the Type of every result message.
const MessageType = "fingers"

// NewMessage converts a Summary to a Message.
func NewMessage(sum app.Summary) Message {
	return Message{
		Type:      MessageType,
		Frame:     sum.Frame,
		Fingers:   sum.Fingers,
		Status:    sum.Status.String(),
		Area:      sum.Area,
		Defects:   sum.Defects,
		Contour:   sum.Contour,
		Timestamp: sum.Time.UnixMilli(),
	}
}

// Encode returns the CBOR encoding of sum.
func Encode(sum app.Summary) ([]byte, error) {
	return cbor.Marshal(NewMessage(sum))
}

// Decode parses a message produced by Encode.
func Decode(data []byte) (Message, error) {
	var m Message
	err := cbor.Unmarshal(data, &m)
	return m, err
}
