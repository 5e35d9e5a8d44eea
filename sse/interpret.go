package sse

import (
	"strings"

	"github.com/fwojciec/drip"
	"github.com/tidwall/gjson"
)

// contentPath locates the incremental text in a chat-completion chunk.
// Only the first choice is consulted.
const contentPath = "choices.0.delta.content"

// Interpret classifies one decoded line.
//
// Blank lines, comments (":..."), fields other than data, empty payloads
// and payloads without content are drip.FrameIgnore. The "[DONE]" payload
// is drip.FrameSentinel. A payload that is not valid JSON is
// drip.FrameMalformed and is meant to be dropped by the caller.
func Interpret(line string) drip.Frame {
	if line == "" || strings.HasPrefix(line, ":") {
		return drip.FrameIgnore{}
	}
	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return drip.FrameIgnore{}
	}
	payload = strings.TrimSpace(payload)
	switch payload {
	case "":
		return drip.FrameIgnore{}
	case Sentinel:
		return drip.FrameSentinel{}
	}
	if !gjson.Valid(payload) {
		return drip.FrameMalformed{Payload: payload, Err: ErrInvalidJSON}
	}
	content := gjson.Get(payload, contentPath)
	if content.Type != gjson.String || content.Str == "" {
		return drip.FrameIgnore{}
	}
	return drip.FrameDelta{Text: content.Str}
}
