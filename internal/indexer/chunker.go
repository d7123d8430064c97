// Package indexer splits texts into chunks, embeds them and writes them to a user's collection.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
)

// separators are tried in order: paragraph, line, sentence, word, character.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// ChunkerConfig bounds chunk size and overlap in characters.
type ChunkerConfig struct {
	MaxSize int
	Overlap int
	// Mode is config.ModeIndependent or config.ModeConcatenate.
	Mode string
}

// Chunker splits texts into ordered, overlapping chunks of at most MaxSize characters.
type Chunker struct {
	cfg      ChunkerConfig
	splitter textsplitter.RecursiveCharacter
}

// NewChunker validates cfg and builds the underlying recursive splitter.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if cfg.MaxSize <= 0 {
		return nil, errortypes.InvalidConfig("max_size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.Overlap < 0 {
		return nil, errortypes.InvalidConfig("overlap must not be negative, got %d", cfg.Overlap)
	}
	if cfg.Overlap >= cfg.MaxSize {
		return nil, errortypes.InvalidConfig("overlap (%d) must be less than max_size (%d)", cfg.Overlap, cfg.MaxSize)
	}
	switch cfg.Mode {
	case "":
		cfg.Mode = config.ModeIndependent
	case config.ModeIndependent, config.ModeConcatenate:
	default:
		return nil, errortypes.InvalidConfig("unknown splitter mode %q", cfg.Mode)
	}
	return &Chunker{
		cfg: cfg,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.MaxSize),
			textsplitter.WithChunkOverlap(cfg.Overlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithKeepSeparator(true),
		),
	}, nil
}

// Mode returns the resolved splitting mode.
func (c *Chunker) Mode() string {
	return c.cfg.Mode
}

// Split returns the chunks of texts in order. In concatenate mode the texts are
// joined with no separator and split once; otherwise each text is split on its own.
func (c *Chunker) Split(texts []string) []string {
	if c.cfg.Mode == config.ModeConcatenate {
		return c.splitOne(strings.Join(texts, ""))
	}
	chunks := make([]string, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, c.splitOne(text)...)
	}
	return chunks
}

func (c *Chunker) splitOne(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		parts = []string{text}
	}
	pieces := trimParts(parts)
	if spans, ok := locate(text, pieces); ok {
		spans = c.reattachTerminators(text, spans)
		pieces = pieces[:0]
		for _, sp := range spans {
			pieces = append(pieces, text[sp.start:sp.end])
		}
	}
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, hardCut(p, c.cfg.MaxSize)...)
	}
	return out
}

func trimParts(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// span is a byte range of the source text.
type span struct {
	start, end int
}

// locate finds each chunk in text. Chunk starts never move backwards, so each
// search begins at the previous start.
func locate(text string, chunks []string) ([]span, bool) {
	spans := make([]span, 0, len(chunks))
	cursor := 0
	for i, ch := range chunks {
		from := cursor
		if i > 0 && chunks[i-1] == ch {
			from = cursor + 1
		}
		if from > len(text) {
			return nil, false
		}
		idx := strings.Index(text[from:], ch)
		if idx < 0 {
			return nil, false
		}
		start := from + idx
		spans = append(spans, span{start: start, end: start + len(ch)})
		cursor = start
	}
	return spans, true
}

// reattachTerminators keeps sentence terminators with the sentence they end.
// The splitter leaves the ". " separator at the head of the following chunk; the
// period moves onto the chunk it terminates when that chunk stays within MaxSize,
// and is dropped from the head of the next chunk once an earlier chunk holds it.
func (c *Chunker) reattachTerminators(text string, spans []span) []span {
	for i := range spans {
		sp := &spans[i]
		if endsBeforeTerminator(text, sp.end) && utf8.RuneCountInString(text[sp.start:sp.end+1]) <= c.cfg.MaxSize {
			sp.end++
		}
	}
	out := spans[:0]
	covered := 0
	for _, sp := range spans {
		if startsWithSeparator(text, sp) && sp.start < covered {
			sp.start++
			for sp.start < sp.end && text[sp.start] == ' ' {
				sp.start++
			}
		}
		if sp.start >= sp.end {
			continue
		}
		if sp.end > covered {
			covered = sp.end
		}
		out = append(out, sp)
	}
	return out
}

// endsBeforeTerminator reports whether text[pos] is a period that closes a sentence.
func endsBeforeTerminator(text string, pos int) bool {
	if pos >= len(text) || text[pos] != '.' {
		return false
	}
	return pos+1 == len(text) || text[pos+1] == ' ' || text[pos+1] == '\n'
}

func startsWithSeparator(text string, sp span) bool {
	if text[sp.start] != '.' {
		return false
	}
	return sp.start+1 == sp.end || text[sp.start+1] == ' '
}

// hardCut splits s into pieces of at most max runes.
func hardCut(s string, max int) []string {
	if utf8.RuneCountInString(s) <= max {
		return []string{s}
	}
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := max
		if n > len(runes) {
			n = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[:n])); piece != "" {
			out = append(out, piece)
		}
		runes = runes[n:]
	}
	return out
}
