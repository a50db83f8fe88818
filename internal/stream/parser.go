package stream

import "strings"

// Wire protocol constants. These must match the producing side exactly: frames
// are "data: <payload>\n\n", payload newlines travel as the [NEWLINE] token so
// they cannot collide with the frame terminator, and the stream ends with
// either the [DONE] sentinel or an [ERROR]-prefixed payload.
const (
	frameStart   = "data: "
	frameEnd     = "\n\n"
	newlineToken = "[NEWLINE]"
	doneToken    = "[DONE]"
	errorPrefix  = "[ERROR]"
)

// FrameKind classifies a protocol frame.
type FrameKind int

const (
	FrameData FrameKind = iota
	FrameDone
	FrameError
)

// Frame is one delimited unit extracted from the stream. DATA frames carry the
// decoded text delta, ERROR frames carry the message with the prefix stripped,
// DONE carries no payload.
type Frame struct {
	Kind    FrameKind
	Payload string
}

// Parser extracts frames from an arbitrarily chunked byte stream. It keeps a
// single growing buffer between Feed calls and never reorders frames. A Parser
// is single-use: once it has emitted DONE or ERROR it stays terminated, and a
// transport abort requires a fresh instance for the next turn.
type Parser struct {
	pending    string
	terminated bool
}

// NewParser returns a parser ready to accept the first chunk of a stream.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends one chunk and returns every frame that is now complete, in
// arrival order. An incomplete trailing frame stays buffered for the next
// call. After a DONE or ERROR frame the parser discards any remaining bytes
// and returns nil for all further input.
func (p *Parser) Feed(chunk string) []Frame {
	if p.terminated {
		return nil
	}

	p.pending += chunk

	var frames []Frame
	for {
		start := strings.Index(p.pending, frameStart)
		if start < 0 {
			// No start marker yet; await more input.
			return frames
		}

		rest := p.pending[start+len(frameStart):]
		end := strings.Index(rest, frameEnd)
		if end < 0 {
			// Frame not yet terminated; keep the partial buffer intact.
			return frames
		}

		payload := Decode(rest[:end])
		p.pending = rest[end+len(frameEnd):]

		switch {
		case payload == doneToken:
			p.terminated = true
			p.pending = ""
			return append(frames, Frame{Kind: FrameDone})
		case strings.HasPrefix(payload, errorPrefix):
			p.terminated = true
			p.pending = ""
			return append(frames, Frame{Kind: FrameError, Payload: strings.TrimPrefix(payload, errorPrefix)})
		default:
			frames = append(frames, Frame{Kind: FrameData, Payload: payload})
		}
	}
}

// Terminated reports whether the parser has seen a DONE or ERROR frame.
func (p *Parser) Terminated() bool {
	return p.terminated
}

// Decode reverses the producer's newline substitution: every occurrence of the
// escape token becomes a literal newline. No other byte sequence is altered.
func Decode(payload string) string {
	return strings.ReplaceAll(payload, newlineToken, "\n")
}

// Encode applies the producer-side substitution, replacing every literal
// newline with the escape token.
func Encode(payload string) string {
	return strings.ReplaceAll(payload, "\n", newlineToken)
}

// EncodeData renders a text delta as a complete wire frame.
func EncodeData(payload string) string {
	return frameStart + Encode(payload) + frameEnd
}

// EncodeDone renders the stream-completion sentinel frame.
func EncodeDone() string {
	return frameStart + doneToken + frameEnd
}

// EncodeError renders an error frame carrying a human-readable message.
func EncodeError(msg string) string {
	return frameStart + errorPrefix + Encode(msg) + frameEnd
}
