package model

type KnowledgeChunk struct {
	ID       int      `json:"id"`
	Hash     string   `json:"hash"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

type ScoredChunk struct {
	Chunk *KnowledgeChunk `json:"chunk"`
	Score int             `json:"score"`
}
