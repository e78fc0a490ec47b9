// Package embedder turns text into fixed-length vectors for similarity search.
package embedder

import (
	"context"
	"math"
)

// DefaultDim is the output size of BGE-small-en-v1.5.
const DefaultDim = 384

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
	Close() error
}

// flatten pads token rows to the longest row and returns row-major int64
// buffers for input_ids, attention_mask and token_type_ids.
func flatten(ids, masks [][]int) (inputIDs, attention, typeIDs []int64, seqLen int) {
	for _, row := range ids {
		if len(row) > seqLen {
			seqLen = len(row)
		}
	}
	n := len(ids) * seqLen
	inputIDs = make([]int64, n)
	attention = make([]int64, n)
	typeIDs = make([]int64, n)

	for i, row := range ids {
		offset := i * seqLen
		for j, id := range row {
			inputIDs[offset+j] = int64(id)
			if j < len(masks[i]) {
				attention[offset+j] = int64(masks[i][j])
			}
		}
	}
	return inputIDs, attention, typeIDs, seqLen
}

// clip keeps at most max tokens, preserving the final [SEP].
func clip(ids, mask []int, max int) ([]int, []int) {
	if max <= 1 || len(ids) <= max {
		return ids, mask
	}
	outIDs := append(append([]int{}, ids[:max-1]...), ids[len(ids)-1])
	outMask := append(append([]int{}, mask[:max-1]...), mask[len(mask)-1])
	return outIDs, outMask
}

// clsPool returns the first-token vector of each sequence from a
// [batch, seqLen, dim] buffer. The result does not alias data.
func clsPool(data []float32, batch, seqLen, dim int) [][]float32 {
	out := make([][]float32, batch)
	for i := 0; i < batch; i++ {
		start := i * seqLen * dim
		v := make([]float32, dim)
		copy(v, data[start:start+dim])
		out[i] = v
	}
	return out
}

// normalize scales v to unit L2 length in place. Zero vectors are left alone.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
