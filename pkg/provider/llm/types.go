package llm

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// ResponseFormat asks the model for a JSON object matching Schema.
type ResponseFormat struct {
	// Name identifies the schema to the provider. Must match [a-zA-Z0-9_-]{1,64}.
	Name string

	// Description tells the model what the object is for.
	Description string

	// Schema is a JSON Schema document. Any value that marshals to a JSON
	// object is accepted (a *jsonschema.Schema or a map[string]any).
	Schema any

	// Strict requests exact schema adherence where the provider supports it.
	Strict bool
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is usually from
	// the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional instruction injected before Messages.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero leaves the
	// provider default in place.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means provider default.
	MaxTokens int

	// ResponseFormat, when non-nil, requests structured JSON output.
	ResponseFormat *ResponseFormat
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is returned by [Provider.Complete].
type CompletionResponse struct {
	// Content is the full text of the assistant's reply. When a ResponseFormat
	// was requested this is the raw JSON text (possibly fenced in markdown by
	// less obedient models).
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsStructuredOutput indicates native JSON-schema constrained decoding.
	SupportsStructuredOutput bool
}
