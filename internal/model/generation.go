package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerationRequest struct {
	Prompt  string     `json:"prompt"`
	Schema  string     `json:"schema,omitempty"`
	Context string     `json:"context,omitempty"`
	History []ChatTurn `json:"history,omitempty"`
}

type RAGContext struct {
	ChunksRetrieved  int      `json:"chunksRetrieved"`
	RelevantSections []string `json:"relevantSections"`
	Confidence       int      `json:"confidence"`
}

type GenerationResult struct {
	Code         string      `json:"code"`
	Explanation  string      `json:"explanation"`
	Features     []string    `json:"features"`
	FullResponse string      `json:"fullResponse"`
	RAGContext   *RAGContext `json:"ragContext,omitempty"`
	Degraded     bool        `json:"degraded,omitempty"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

type ChatResult struct {
	Reply      string      `json:"reply"`
	RAGContext *RAGContext `json:"ragContext,omitempty"`
	Degraded   bool        `json:"degraded,omitempty"`
}
