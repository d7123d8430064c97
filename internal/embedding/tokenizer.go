package embedding

import (
	"hash/fnv"
	"strings"
)

const (
	tokenCLS       = 101
	tokenSEP       = 102
	vocabularySize = 30000
	// firstWordToken keeps hashed word IDs clear of the special tokens.
	firstWordToken = 1000
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// HashTokenizer is a whitespace tokenizer with hashed word IDs. It keeps the
// ONNX session's input shape fixed at maxTokens.
type HashTokenizer struct{}

// Tokenize lowercases and splits text on whitespace, then produces
// [CLS] words... [SEP] padded to maxTokens.
func (t *HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1
	pos := 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = wordToken(word)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = tokenSEP
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

func wordToken(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int64(firstWordToken + h.Sum32()%(vocabularySize-firstWordToken))
}
