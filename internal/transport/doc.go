// Package transport frames JSON documents over a byte stream.
//
// One request document is written per command and exactly one response
// document is read back. There is no length prefix and no delimiter: Receive
// accumulates fixed-size chunks until the buffer decodes as one complete JSON
// value. Partial or invalid input means more bytes are needed, not failure.
//
// This framing is only unambiguous while a single message is in flight in
// each direction. Producers must never emit a second document until the
// outstanding request is answered. Bytes found after a complete document are
// reported as ErrFrameAmbiguous and the stream must be discarded.
package transport
