package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/gsqlai/internal/model"
)

func TestParseGeneration_FullReply(t *testing.T) {
	raw := "Here you go.\n\n```GSQL\nCREATE QUERY a() FOR GRAPH g {\n  PRINT 1;\n}\n```\n\n" +
		"**Explanation**: Prints one.\nSecond line.\n\n**Key Features**:\n* first\n2. second\n\n"
	res := parseGeneration(raw)
	require.Equal(t, "CREATE QUERY a() FOR GRAPH g {\n  PRINT 1;\n}", res.Code)
	require.Equal(t, "Prints one.\nSecond line.", res.Explanation)
	require.Equal(t, []string{"first", "second"}, res.Features)
	require.Equal(t, "Here you go.\n\n```GSQL\nCREATE QUERY a() FOR GRAPH g {\n  PRINT 1;\n}\n```\n\n"+
		"**Explanation**: Prints one.\nSecond line.\n\n**Key Features**:\n* first\n2. second", res.FullResponse)
}

func TestParseGeneration_NoFence(t *testing.T) {
	res := parseGeneration("  CREATE QUERY b() FOR GRAPH g {}  ")
	require.Equal(t, "CREATE QUERY b() FOR GRAPH g {}", res.Code)
	require.Equal(t, defaultExplanation, res.Explanation)
	require.NotNil(t, res.Features)
	require.Empty(t, res.Features)
}

func TestParseGeneration_FirstBlockWins(t *testing.T) {
	res := parseGeneration("```gsql\nfirst\n```\ntext\n```gsql\nsecond\n```")
	require.Equal(t, "first", res.Code)
}

func TestParseGeneration_OtherFenceIgnored(t *testing.T) {
	raw := "```sql\nSELECT 1\n```"
	res := parseGeneration(raw)
	require.Equal(t, raw, res.Code)
}

func TestRAGContextHelpers(t *testing.T) {
	require.Nil(t, ragContext(nil))
	chunks := []model.ScoredChunk{
		{Chunk: &model.KnowledgeChunk{Title: "A"}, Score: 100},
		{Chunk: &model.KnowledgeChunk{Title: "B"}, Score: 50},
	}
	rc := ragContext(chunks)
	require.Equal(t, 2, rc.ChunksRetrieved)
	require.Equal(t, []string{"A", "B"}, rc.RelevantSections)
	require.Equal(t, 75, rc.Confidence)

	fb := generationFallback(nil)
	require.True(t, fb.Degraded)
	require.Nil(t, fb.RAGContext)
	require.Equal(t, unreachableNotice, fb.Explanation)
	require.NotNil(t, fb.Features)
}

func TestParseGeneration_SectionsOnAdjacentLines(t *testing.T) {
	res := parseGeneration("```gsql\nQ\n```\n**Explanation**: walks edges.\n**Key Features**:\n- a\n- b")
	require.Equal(t, "Q", res.Code)
	require.Equal(t, "walks edges.", res.Explanation)
	require.Equal(t, []string{"a", "b"}, res.Features)
}

func TestParseGeneration_ExplanationStopsAtBlankLine(t *testing.T) {
	res := parseGeneration("**Explanation**: first paragraph.\n\nunrelated trailing text")
	require.Equal(t, "first paragraph.", res.Explanation)
}

func TestParseGeneration_FenceTagNeedsWordBoundary(t *testing.T) {
	raw := "```gsqlx\nnot gsql\n```"
	require.Equal(t, raw, parseGeneration(raw).Code)
	require.Equal(t, "Q", parseGeneration("```Gsql  \nQ\n```").Code)
}
