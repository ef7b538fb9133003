package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/model"
)

const (
	DefaultMinChunkChars = 50
	maxKeywords          = 10
)

// sectionLabel matches the text of a chunk-opening heading: NAMESPACE_TITLE.
var sectionLabel = regexp.MustCompile(`^([A-Za-z0-9]+)_(\S.*)$`)

type ParseOptions struct {
	// Namespace restricts the heading prefix; empty accepts any.
	Namespace     string
	MinChunkChars int
}

type section struct {
	title       string
	lineStart   int
	bodyStart   int
	subheadings []string
}

// Parse splits a knowledge document into chunks. Every level-2 ATX heading
// shaped like "## NAMESPACE_TITLE" opens a chunk that runs until the next such
// heading. Level-3 heading texts inside a chunk are prepended to its content.
func Parse(ctx context.Context, source []byte, opts ParseOptions) []*model.KnowledgeChunk {
	logger := logutil.GetLogger(ctx)
	minChars := opts.MinChunkChars
	if minChars <= 0 {
		minChars = DefaultMinChunkChars
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var sections []section
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			continue
		}
		start := lineStart(source, heading.Lines().At(0).Start)
		if !isATXHeading(source[start:]) {
			continue
		}
		label := headingText(heading, source)
		switch heading.Level {
		case 2:
			title, ok := opts.matchTitle(label)
			if !ok {
				continue
			}
			last := heading.Lines().At(heading.Lines().Len() - 1)
			sections = append(sections, section{
				title:     title,
				lineStart: start,
				bodyStart: lineEnd(source, last.Stop),
			})
		case 3:
			if len(sections) > 0 && label != "" {
				cur := &sections[len(sections)-1]
				cur.subheadings = append(cur.subheadings, label)
			}
		}
	}

	chunks := make([]*model.KnowledgeChunk, 0, len(sections))
	for i, sec := range sections {
		end := len(source)
		if i+1 < len(sections) {
			end = sections[i+1].lineStart
		}
		body := strings.TrimSpace(string(source[sec.bodyStart:end]))
		if utf8.RuneCountInString(body) < minChars {
			logger.Debug("skip short knowledge section", zap.String("title", sec.title), zap.Int("chars", utf8.RuneCountInString(body)))
			continue
		}
		content := body
		if len(sec.subheadings) > 0 {
			content = strings.Join(sec.subheadings, " ") + "\n" + body
		}
		chunks = append(chunks, &model.KnowledgeChunk{
			ID:       len(chunks),
			Hash:     contentHash(sec.title, content),
			Title:    sec.title,
			Content:  content,
			Keywords: ExtractKeywords(content, maxKeywords),
		})
	}
	logger.Info("knowledge document parsed", zap.Int("sections", len(sections)), zap.Int("chunks", len(chunks)))
	return chunks
}

func (o ParseOptions) matchTitle(label string) (string, bool) {
	m := sectionLabel.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	if o.Namespace != "" && !strings.EqualFold(m[1], o.Namespace) {
		return "", false
	}
	return strings.TrimSpace(m[2]), true
}

func headingText(heading *ast.Heading, source []byte) string {
	var sb strings.Builder
	lines := heading.Lines()
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func isATXHeading(line []byte) bool {
	trimmed := strings.TrimLeft(string(line[:lineEnd(line, 0)]), " ")
	return strings.HasPrefix(trimmed, "#")
}

func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline that ends the line holding pos.
func lineEnd(source []byte, pos int) int {
	for pos < len(source) {
		if source[pos] == '\n' {
			return pos + 1
		}
		pos++
	}
	return len(source)
}

func contentHash(title, content string) string {
	sum := sha256.Sum256([]byte(title + "\n" + content))
	return hex.EncodeToString(sum[:])[:16]
}
