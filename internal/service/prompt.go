package service

import (
	"fmt"
	"strings"

	"github.com/xxxsen/gsqlai/internal/model"
)

const generationInstructions = `You are an expert TigerGraph GSQL developer. You write correct, idiomatic GSQL
queries for the graph schema and request the user provides.

## GSQL fundamentals
- A query is declared with CREATE QUERY name(params) FOR GRAPH graph_name { ... } and
  installed with INSTALL QUERY name. Use CREATE OR REPLACE QUERY when iterating.
- Vertex sets are seeded with Start = {VertexType.*}; or from parameters of type VERTEX<T>.
- SELECT blocks traverse edges:
    Result = SELECT t FROM Start:s -(EdgeType:e)- TargetType:t
             WHERE <condition>
             ACCUM <per-edge statements>
             POST-ACCUM <per-vertex statements>;
- Directed edges use -(EdgeType>:e)- and reverse edges -(<EdgeType:e)-.
- Accumulators: global (@@name) and vertex-attached (@name). Common types are SumAccum,
  MaxAccum, MinAccum, AvgAccum, OrAccum, AndAccum, ListAccum, SetAccum, MapAccum,
  HeapAccum and GroupByAccum. Use += to accumulate and = to assign.
- Inside ACCUM, reads of accumulators see values from before the block; writes become
  visible after the block completes.
- Control flow: WHILE cond LIMIT n DO ... END; IF cond THEN ... ELSE ... END;
  FOREACH x IN collection DO ... END.
- Output with PRINT; PRINT Result[Result.attr AS alias] selects fields.

## Syntax rules
- Every statement ends with a semicolon, including the closing brace of SELECT blocks.
- Vertex and edge type names are case-sensitive and must match the schema exactly.
- Use typed parameters (INT, UINT, FLOAT, DOUBLE, STRING, BOOL, DATETIME, VERTEX<T>,
  SET<T>, LIST<T>) and give sensible defaults where helpful.
- Prefer vertex-attached accumulators over global maps for per-vertex state.
- Never invent schema elements; if the schema is missing something, say so in the
  explanation.

## Output format
Always answer with exactly these sections:

` + "```gsql" + `
<the complete query>
` + "```" + `

**Explanation**: <two to five sentences describing how the query works>

**Key Features**:
- <one notable technique per line>

## Example
Request: count the friends of each person.

` + "```gsql" + `
CREATE QUERY friend_count() FOR GRAPH Social {
  SumAccum<INT> @friends;
  People = {Person.*};
  People = SELECT p FROM People:p -(Friend:e)- Person:f
           ACCUM p.@friends += 1;
  PRINT People[People.name, People.@friends AS friends];
}
` + "```" + `

**Explanation**: The query seeds every Person, walks the Friend edges and adds one to a
vertex-attached counter per edge, then prints each name with its count.

**Key Features**:
- Vertex-attached SumAccum for per-person counts
- Single SELECT traversal over Friend edges
`

const chatInstructions = `You are the GSQL assistant of a developer portal. Answer questions about
TigerGraph, GSQL and graph analytics clearly and concisely. Use short code samples in
` + "```gsql" + ` fences when they help. If you are not sure about something, say so
instead of guessing.`

const (
	generationAck = "Understood. I will write GSQL following these rules and answer with the code, **Explanation** and **Key Features** sections."
	chatAck       = "Understood. I will answer as the GSQL assistant."
)

// withRetrievedContext appends the retrieved chunks to an instruction prompt.
func withRetrievedContext(instructions string, retrieved []model.ScoredChunk) string {
	if len(retrieved) == 0 {
		return instructions
	}
	parts := make([]string, 0, len(retrieved))
	for i, item := range retrieved {
		parts = append(parts, fmt.Sprintf("[Context %d: %s]\n%s", i+1, item.Chunk.Title, item.Chunk.Content))
	}
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n## Reference documentation\n")
	sb.WriteString("Use the following documentation excerpts for factual grounding. Prefer them over memory when they disagree.\n\n")
	sb.WriteString(strings.Join(parts, "\n\n---\n\n"))
	return sb.String()
}

func buildGenerationMessage(prompt, schema, extra string) string {
	message := prompt
	if strings.TrimSpace(schema) != "" {
		message = fmt.Sprintf("Schema Information:\n%s\n\nUser Request:\n%s", schema, prompt)
	}
	if strings.TrimSpace(extra) != "" {
		message += fmt.Sprintf("\n\nAdditional Context:\n%s", extra)
	}
	return message
}

// assembleTurns orders the conversation: instructions, acknowledgement,
// replayed history, current message.
func assembleTurns(instructions, ack string, history []model.ChatTurn, message string) []model.ChatTurn {
	turns := make([]model.ChatTurn, 0, len(history)+3)
	turns = append(turns,
		model.ChatTurn{Role: model.RoleUser, Content: instructions},
		model.ChatTurn{Role: model.RoleAssistant, Content: ack},
	)
	turns = append(turns, history...)
	turns = append(turns, model.ChatTurn{Role: model.RoleUser, Content: message})
	return turns
}
