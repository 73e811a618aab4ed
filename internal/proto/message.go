package proto

// Hello is the first frame a client sends after the upgrade. It only
// establishes the display name; an empty or missing username falls back
// to the server default.
type Hello struct {
	Username string `json:"username,omitempty"`
}

// Inbound is every frame after the hello.
type Inbound struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	// InboundTypeCode relays an edit of the shared buffer.
	InboundTypeCode = "code"
	// InboundTypeRun asks the server to compile and run the buffer.
	InboundTypeRun = "run"
)

// Outbound is the envelope broadcast to room members.
type Outbound struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	// Username is set on code frames so clients can attribute the edit.
	Username string `json:"username,omitempty"`
}

const (
	// OutboundTypeStatus carries join/leave notices.
	OutboundTypeStatus = "status"
	// OutboundTypeCode is a relayed edit, echoed to the sender too.
	OutboundTypeCode = "code"
	// OutboundTypeOutput is an execution result, success or diagnostic.
	OutboundTypeOutput = "output"
)
