package dossier

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinChunkSize is the minimum trimmed length, in characters, of an
// emitted chunk. Shorter sections are boilerplate or empty.
const DefaultMinChunkSize = 50

// Chunk is a retrieval unit of normalized text with section provenance.
// Chunks are derived: they are regenerated from normalized content on every
// full run and never patched.
type Chunk struct {
	ID          string   `json:"id"`
	ArtifactID  string   `json:"artifact_id"`
	SourceURL   string   `json:"source_url"`
	SectionPath []string `json:"section_path"`
	Index       int      `json:"chunk_index"`
	Text        string   `json:"text"`
	WordCount   int      `json:"word_count"`
}

type sectionHeading struct {
	level int
	text  string
}

// SplitChunks splits normalized text at heading lines. A heading closes
// the accumulating chunk, which is emitted if its trimmed text has at least
// minSize characters, and replaces every open heading of the same or a
// deeper level in the section path. Lines inside fenced code blocks are
// never headings. Chunk IDs are left for the caller to assign.
func SplitChunks(text string, a *Artifact, minSize int) []*Chunk {
	var (
		chunks  []*Chunk
		stack   []sectionHeading
		body    []string
		inFence bool
	)

	emit := func() {
		t := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if t == "" || utf8.RuneCountInString(t) < minSize {
			return
		}
		path := make([]string, len(stack))
		for i, h := range stack {
			path[i] = h.text
		}
		chunks = append(chunks, &Chunk{
			ArtifactID:  a.ID,
			SourceURL:   a.URL,
			SectionPath: path,
			Index:       len(chunks),
			Text:        t,
			WordCount:   len(strings.Fields(t)),
		})
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if isFence(line) {
			inFence = !inFence
			body = append(body, line)
			continue
		}
		if !inFence {
			if level, ok := ParseHeading(line); ok {
				emit()
				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				stack = append(stack, sectionHeading{level: level, text: strings.TrimSpace(line)})
				continue
			}
		}
		body = append(body, line)
	}
	emit()

	return chunks
}
