package protocol

type decodeState uint8

const (
	waitSync decodeState = iota
	readHeader
	readPayload
	readCRC
)

// Decoder assembles frames one byte at a time, for callers that cannot block
// on a reader. Bytes outside a frame are skipped until the next sync byte.
type Decoder struct {
	state   decodeState
	header  [3]byte
	n       int
	length  int
	payload []byte
	crc     uint16
	rxCRC   [2]byte
}

// Feed consumes one byte. It returns a frame once the last CRC byte arrives.
// A bad length or CRC returns an error and resynchronizes on the next sync
// byte.
func (d *Decoder) Feed(b byte) (*Frame, error) {
	switch d.state {
	case waitSync:
		if b == SyncByte {
			d.state = readHeader
			d.n = 0
			d.crc = 0xFFFF
		}
		return nil, nil

	case readHeader:
		d.header[d.n] = b
		d.n++
		d.crc = updateCRC(d.crc, b)
		if d.n < len(d.header) {
			return nil, nil
		}
		d.length = int(d.header[1]) | int(d.header[2])<<8
		if d.length > MaxPayload {
			d.Reset()
			return nil, ErrInvalidFrame
		}
		d.payload = nil
		d.n = 0
		if d.length == 0 {
			d.state = readCRC
		} else {
			d.payload = make([]byte, d.length)
			d.state = readPayload
		}
		return nil, nil

	case readPayload:
		d.payload[d.n] = b
		d.n++
		d.crc = updateCRC(d.crc, b)
		if d.n == d.length {
			d.n = 0
			d.state = readCRC
		}
		return nil, nil

	case readCRC:
		d.rxCRC[d.n] = b
		d.n++
		if d.n < len(d.rxCRC) {
			return nil, nil
		}
		received := uint16(d.rxCRC[0]) | uint16(d.rxCRC[1])<<8
		frame := &Frame{Cmd: d.header[0], Payload: d.payload}
		ok := received == d.crc
		d.Reset()
		if !ok {
			return nil, ErrCRCMismatch
		}
		return frame, nil
	}
	return nil, nil
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.state = waitSync
	d.n = 0
	d.length = 0
	d.payload = nil
}
