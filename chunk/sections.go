package chunk

import "strings"

// SectionChunk is a chunk tagged with the document section it was cut from.
// Chunks produced outside any recognized section carry an empty
// SectionHeader.
type SectionChunk struct {
	Chunk
	SectionHeader   string
	SectionPosition int // 0-based order of the section within the document
}

// ChunkSections splits text at the given section headers, then chunks each
// section independently. Chunk numbering restarts inside every section;
// positions are offsets into the full document. Headers are matched in
// order, each search starting after the previous match, and headers not
// found in the text are skipped. With no headers the whole text is chunked
// as a single unnamed section.
func (c *Chunker) ChunkSections(text string, headers []string) []SectionChunk {
	if len(headers) == 0 {
		return c.unnamedSection(text)
	}

	type section struct {
		header string
		start  int
	}

	var sections []section
	pos := 0
	for _, header := range headers {
		idx := indexFrom(text, header, pos)
		if idx < 0 {
			continue
		}
		sections = append(sections, section{header: header, start: idx})
		pos = idx + len(header)
	}

	if len(sections) == 0 {
		return c.unnamedSection(text)
	}

	var out []SectionChunk
	for i, sec := range sections {
		end := len(text)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}

		for _, ch := range c.Chunk(text[sec.start:end]) {
			ch.StartPos += sec.start
			ch.EndPos += sec.start
			out = append(out, SectionChunk{
				Chunk:           ch,
				SectionHeader:   sec.header,
				SectionPosition: i,
			})
		}
	}
	return out
}

func (c *Chunker) unnamedSection(text string) []SectionChunk {
	chunks := c.Chunk(text)
	if len(chunks) == 0 {
		return nil
	}
	out := make([]SectionChunk, len(chunks))
	for i, ch := range chunks {
		out[i] = SectionChunk{Chunk: ch}
	}
	return out
}

func indexFrom(text, substr string, from int) int {
	if from >= len(text) {
		return -1
	}
	if i := strings.Index(text[from:], substr); i >= 0 {
		return from + i
	}
	return -1
}
