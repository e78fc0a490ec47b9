package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const maxSeqLen = 512

var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX runs a BERT-style sentence embedding model (BGE-small by default)
// with CLS pooling and L2 normalisation.
type ONNX struct {
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	dim     int
	logger  *slog.Logger

	// ONNX sessions are not safe for concurrent Run calls.
	mu sync.Mutex
}

type ONNXConfig struct {
	ModelPath     string
	TokenizerPath string
	LibraryPath   string
	Dim           int
}

func NewONNX(cfg ONNXConfig, logger *slog.Logger) (*ONNX, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("embedder: model and tokenizer paths are required")
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = DefaultDim
	}

	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("embedder: load tokenizer: %w", err)
	}

	if err := initORT(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("embedder: initialize runtime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("embedder: session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: create session: %w", err)
	}

	logger.Info("embedder ready", "model", cfg.ModelPath, "dim", dim)
	return &ONNX{tok: tok, session: session, dim: dim, logger: logger}, nil
}

func (e *ONNX) Dim() int { return e.dim }

func (e *ONNX) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *ONNX) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}
	encodings, err := e.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("embedder: tokenize: %w", err)
	}

	ids := make([][]int, len(encodings))
	masks := make([][]int, len(encodings))
	for i, enc := range encodings {
		ids[i], masks[i] = clip(enc.GetIds(), enc.GetAttentionMask(), maxSeqLen)
	}
	inputIDs, attention, typeIDs, seqLen := flatten(ids, masks)

	batch := int64(len(texts))
	shape := ort.NewShape(batch, int64(seqLen))

	tIDs, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("embedder: input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()
	tMask, err := ort.NewTensor(shape, attention)
	if err != nil {
		return nil, fmt.Errorf("embedder: attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()
	tTypes, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("embedder: token_type_ids tensor: %w", err)
	}
	defer tTypes.Destroy()

	outputs := make([]ort.Value, 1)
	e.mu.Lock()
	err = e.session.Run([]ort.Value{tIDs, tMask, tTypes}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("embedder: inference: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("embedder: output tensor is not float32")
	}
	dims := out.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("embedder: expected 3D output, got %v", dims)
	}
	if int(dims[2]) != e.dim {
		return nil, fmt.Errorf("embedder: model dimension %d does not match configured %d", dims[2], e.dim)
	}

	vecs := clsPool(out.GetData(), int(dims[0]), int(dims[1]), int(dims[2]))
	for _, v := range vecs {
		normalize(v)
	}
	return vecs, nil
}

func (e *ONNX) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}
