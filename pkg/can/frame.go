package can

import (
	"github.com/notnil/canbus/canbus"
)

// Frame is a classical CAN (2.0A/2.0B) frame.
type Frame = canbus.Frame

// maxStdID is the largest 11-bit identifier; NewFrame switches to extended
// frames above it.
const maxStdID = 0x7FF

var (
	ErrInvalidID  = canbus.ErrInvalidID
	ErrInvalidLen = canbus.ErrInvalidLen
)

// NewFrame builds a frame from an identifier and payload. IDs above the 11-bit
// range select an extended frame.
func NewFrame(id uint32, data []byte) (Frame, error) {
	f := Frame{ID: id, Extended: id > maxStdID}
	if len(data) > len(f.Data) {
		return Frame{}, ErrInvalidLen
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	return f, f.Validate()
}
