package deepseek

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ModelChat is the one reserved model name that maps to the chat model
// class; every other name maps to the code class.
const ModelChat = "deepseek-chat"

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the non-streamed reply from /api/chat/send.
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Content returns the assistant text of the first choice, or "" when the
// reply carried no choices.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StreamDelta is one parsed frame of a streamed reply. Transient: produced
// and consumed within a single streaming call, never persisted.
type StreamDelta struct {
	ID      string         `json:"id,omitempty"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice is one choice inside a stream frame.
type StreamChoice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Delta is the incremental content fragment of a stream frame.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Content returns the content fragment of the first choice.
func (d StreamDelta) Content() string {
	if len(d.Choices) == 0 {
		return ""
	}
	return d.Choices[0].Delta.Content
}

// FinishReason returns the finish signal of the first choice, if any.
func (d StreamDelta) FinishReason() string {
	if len(d.Choices) == 0 {
		return ""
	}
	return d.Choices[0].FinishReason
}

// modelClass maps a model name to the wire-level model class. The mapping
// is a rigid binary: exactly ModelChat selects the chat class, anything
// else (the empty string included) selects the code class.
func modelClass(model string) string {
	if model == ModelChat {
		return "deepseek_chat"
	}
	return "deepseek_code"
}
