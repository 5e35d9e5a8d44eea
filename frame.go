package drip

// Frame is a sealed interface representing one interpreted line of the
// response stream. The unexported marker method prevents external
// implementations.
type Frame interface {
	frame()
}

// FrameIgnore is a line that carries nothing: a comment, a blank separator,
// a field other than data, or a payload without content.
type FrameIgnore struct{}

func (FrameIgnore) frame() {}

// FrameSentinel marks the end of the stream. Nothing after it is read.
type FrameSentinel struct{}

func (FrameSentinel) frame() {}

// FrameDelta carries an incremental fragment of assistant text.
type FrameDelta struct {
	Text string
}

func (FrameDelta) frame() {}

// FrameMalformed is a data line whose payload could not be parsed.
// It is dropped; it never aborts a turn.
type FrameMalformed struct {
	Payload string
	Err     error
}

func (FrameMalformed) frame() {}

// Interface compliance checks.
var (
	_ Frame = FrameIgnore{}
	_ Frame = FrameSentinel{}
	_ Frame = FrameDelta{}
	_ Frame = FrameMalformed{}
)
