package model

const (
	GenerationKindGenerate = "generate"
	GenerationKindChat     = "chat"
)

const (
	OutcomeOK          = "ok"
	OutcomeCached      = "cached"
	OutcomeDegraded    = "degraded"
	OutcomeRateLimited = "rate_limited"
	OutcomeUnavailable = "unavailable"
	OutcomeMisconfig   = "misconfigured"
)

type GenerationRecord struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Kind            string `json:"kind"`
	PromptHash      string `json:"prompt_hash"`
	ChunksRetrieved int    `json:"chunks_retrieved"`
	Confidence      int    `json:"confidence"`
	Outcome         string `json:"outcome"`
	LatencyMs       int64  `json:"latency_ms"`
	Ctime           int64  `json:"ctime"`
}
