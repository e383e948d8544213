package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	cmerrors "github.com/wagiedev/claudemol-go/internal/errors"
)

// ChunkSize is the size of each read while accumulating a response.
const ChunkSize = 4096

// Request type and response statuses on the wire.
const (
	TypeExecute   = "execute"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request asks the listener to run a command.
type Request struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// Response is the listener's answer to a Request.
type Response struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewExecute builds an execute request for code.
func NewExecute(code string) *Request {
	return &Request{Type: TypeExecute, Code: code}
}

// OK reports whether the response carries a successful result.
func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}

// Send writes v as compact JSON, with no trailing delimiter.
func Send(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return fmt.Errorf("write message: %w", err)
		}

		data = data[n:]
	}

	return nil
}

// Receive reads chunks from r until they form one complete JSON document and
// decodes it into v.
//
// It returns cmerrors.ErrConnectionClosed if the stream ends first,
// cmerrors.ErrFrameAmbiguous if bytes follow the document, and the reader's own
// error for anything else (including deadline errors, left for the caller to
// classify).
func Receive(r io.Reader, v any) error {
	var buf []byte

	chunk := make([]byte, ChunkSize)

	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			done, err := decodeFrame(buf, v)
			if done {
				return err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return cmerrors.ErrConnectionClosed
			}

			return readErr
		}

		// A zero-byte read without error is treated as a closed peer, since
		// the listener never sends empty writes.
		if n == 0 {
			return cmerrors.ErrConnectionClosed
		}
	}
}

// decodeFrame attempts to decode buf as a single document. It reports
// done=false while more bytes are needed.
func decodeFrame(buf []byte, v any) (bool, error) {
	if !utf8.Valid(buf) {
		return false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(buf))

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return false, nil
	}

	// A bare scalar at the end of the buffer may still be growing ("12" split
	// as "1" + "2"), so only objects and arrays are treated as complete.
	if first := raw[0]; first != '{' && first != '[' {
		return false, nil
	}

	if len(bytes.TrimSpace(buf[dec.InputOffset():])) > 0 {
		return true, cmerrors.ErrFrameAmbiguous
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode message: %w", err)
	}

	return true, nil
}
