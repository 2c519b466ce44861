package scoutpod

type ResponseType string

const (
	// ResponseTypePartialText is a streamed fragment of the assistant answer.
	ResponseTypePartialText ResponseType = "partial_text"
	// ResponseTypeStatus is an intermediate progress note, e.g. "Searching
	// the web" while a tool runs.
	ResponseTypeStatus ResponseType = "status"
	ResponseTypeEnd    ResponseType = "end"
	ResponseTypeError  ResponseType = "error"
)

// Response is a single unit of streamed output from the agent to the caller.
type Response struct {
	Content string
	Type    ResponseType
}
