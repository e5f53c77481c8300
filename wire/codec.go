// Package wire implements the length-prefixed JSON framing protocol.
//
// Every frame is a 10-byte header followed by a JSON body. The header is
// the decimal byte length of the body, left-justified and padded with
// spaces. Anything that breaks this shape is a *FramingError.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// ErrIdle is returned by ReadFrame when the read deadline expired before
// any byte of the next frame arrived. Callers poll with short deadlines
// to observe shutdown; an idle timeout is expected and retried, unlike a
// timeout in the middle of a frame, which is fatal.
var ErrIdle = errors.New("wire: no frame before read deadline")

// HeaderLength is the fixed byte width of the frame header.
const HeaderLength = 10

// MaxFrameSize caps the body length accepted from a peer. The codec
// itself has no limit, but a header length is reflected directly into a
// receive buffer size, so the socket-facing reader refuses anything
// larger than this.
const MaxFrameSize = 1 << 20

// FramingError reports a frame that could not be encoded or decoded:
// a short or non-numeric header, a closed connection mid-frame, or an
// invalid JSON body.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("framing: %s: %v", e.Reason, e.Err)
	}
	return "framing: " + e.Reason
}

func (e *FramingError) Unwrap() error { return e.Err }

func framingErr(reason string, err error) error {
	return &FramingError{Reason: reason, Err: err}
}

// Encode serializes v as JSON and prepends the 10-byte length header.
func Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, framingErr("payload not JSON-serializable", err)
	}
	frame := make([]byte, 0, HeaderLength+len(body))
	frame = append(frame, fmt.Sprintf("%-*d", HeaderLength, len(body))...)
	return append(frame, body...), nil
}

// DecodeHeader parses a 10-byte header into a body length. An empty or
// short header means the peer closed the connection mid-frame; it is a
// framing fault, not a silent no-op.
func DecodeHeader(header []byte) (int, error) {
	if len(header) != HeaderLength {
		return 0, framingErr(fmt.Sprintf("header is %d bytes, want %d", len(header), HeaderLength), nil)
	}
	text := strings.TrimRight(string(header), " \x00")
	length, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, framingErr(fmt.Sprintf("header %q is not a decimal length", text), err)
	}
	if length < 0 {
		return 0, framingErr(fmt.Sprintf("negative body length %d", length), nil)
	}
	return length, nil
}

// DecodeBody parses a frame body into v.
func DecodeBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return framingErr("body is not valid JSON", err)
	}
	return nil
}

// ReadFrame reads one full frame from r and decodes its body into v.
// It enforces MaxFrameSize. I/O errors are returned as-is so callers can
// distinguish connection faults (timeouts, resets) from framing faults.
func ReadFrame(r io.Reader, v any) error {
	header := make([]byte, HeaderLength)
	if n, err := io.ReadFull(r, header); err != nil {
		var netErr net.Error
		if n == 0 && errors.As(err, &netErr) && netErr.Timeout() {
			return ErrIdle
		}
		return err
	}
	length, err := DecodeHeader(header)
	if err != nil {
		return err
	}
	if length > MaxFrameSize {
		return framingErr(fmt.Sprintf("body length %d exceeds limit %d", length, MaxFrameSize), nil)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	return DecodeBody(body, v)
}
