package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/pkg/response"
	"github.com/xxxsen/gsqlai/internal/service"
)

type GSQLHandler struct {
	gsql  *service.GSQLService
	debug bool
}

// NewGSQLHandler builds the handler. debug adds raw error details to 500
// responses and must stay off in production.
func NewGSQLHandler(gsql *service.GSQLService, debug bool) *GSQLHandler {
	return &GSQLHandler{gsql: gsql, debug: debug}
}

type searchRequest struct {
	Query  string `json:"query"`
	Schema string `json:"schema"`
	TopK   int    `json:"topK"`
}

type searchItem struct {
	ID       int      `json:"id"`
	Hash     string   `json:"hash"`
	Title    string   `json:"title"`
	Score    int      `json:"score"`
	Keywords []string `json:"keywords"`
}

type sectionItem struct {
	ID       int      `json:"id"`
	Hash     string   `json:"hash"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

func (h *GSQLHandler) Generate(c *gin.Context) {
	userID, ok := requireUser(c, h.debug)
	if !ok {
		return
	}
	var req model.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.Error(c, http.StatusBadRequest, msgPromptRequired)
		return
	}
	result, err := h.gsql.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err, h.debug)
		return
	}
	response.Success(c, result)
}

func (h *GSQLHandler) Chat(c *gin.Context) {
	userID, ok := requireUser(c, h.debug)
	if !ok {
		return
	}
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.Error(c, http.StatusBadRequest, "Message is required")
		return
	}
	result, err := h.gsql.Chat(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err, h.debug)
		return
	}
	response.Success(c, result)
}

func (h *GSQLHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	scored, err := h.gsql.Search(c.Request.Context(), req.Query, req.Schema, req.TopK)
	if err != nil {
		handleError(c, err, h.debug)
		return
	}
	items := make([]searchItem, 0, len(scored))
	for _, s := range scored {
		items = append(items, searchItem{
			ID:       s.Chunk.ID,
			Hash:     s.Chunk.Hash,
			Title:    s.Chunk.Title,
			Score:    s.Score,
			Keywords: s.Chunk.Keywords,
		})
	}
	response.Success(c, gin.H{"items": items})
}

func (h *GSQLHandler) Sections(c *gin.Context) {
	chunks := h.gsql.Sections(c.Request.Context())
	sections := make([]sectionItem, 0, len(chunks))
	for _, chunk := range chunks {
		sections = append(sections, sectionItem{
			ID:       chunk.ID,
			Hash:     chunk.Hash,
			Title:    chunk.Title,
			Keywords: chunk.Keywords,
		})
	}
	response.Success(c, gin.H{"sections": sections})
}

func (h *GSQLHandler) Generations(c *gin.Context) {
	userID, ok := requireUser(c, h.debug)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, msgInvalidRequest)
			return
		}
		limit = parsed
	}
	items, err := h.gsql.ListGenerations(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err, h.debug)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *GSQLHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":           "ok",
		"geminiConfigured": h.gsql.Configured(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
