package core

import (
	"context"
	"fmt"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"
)

const defaultMaxSequenceLength = 512

type TextModelConfig struct {
	ModelPath     string
	TokenizerPath string
	Labels        []string
	// BERT style graphs take a third token_type_ids input.
	UseTokenTypeIds bool
	MaxLength       int
}

// OnnxTextClassifier is a sequence classification transformer exported to ONNX together
// with its HuggingFace tokenizer.json.
type OnnxTextClassifier struct {
	session         *OnnxSession
	tokenizer       *tokenizers.Tokenizer
	labels          []string
	useTokenTypeIds bool
	maxLength       int
}

var _ TextClassifier = (*OnnxTextClassifier)(nil)

func LoadOnnxTextClassifier(cfg TextModelConfig) (*OnnxTextClassifier, error) {
	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("text classifier requires labels")
	}

	tk, err := tokenizers.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer load: %w", err)
	}

	inputs := []string{"input_ids", "attention_mask"}
	if cfg.UseTokenTypeIds {
		inputs = append(inputs, "token_type_ids")
	}

	session, err := NewOnnxSession(cfg.ModelPath, inputs, []string{"logits"})
	if err != nil {
		tk.Close()
		return nil, err
	}

	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxSequenceLength
	}

	return &OnnxTextClassifier{
		session:         session,
		tokenizer:       tk,
		labels:          cfg.Labels,
		useTokenTypeIds: cfg.UseTokenTypeIds,
		maxLength:       maxLength,
	}, nil
}

func (m *OnnxTextClassifier) encode(text string) (ids, mask, typeIds []int64) {
	enc := m.tokenizer.EncodeWithOptions(
		text, true,
		tokenizers.WithReturnAttentionMask(),
		tokenizers.WithReturnTypeIDs(),
	)
	n := min(len(enc.IDs), m.maxLength)
	ids = int64Tensor(enc.IDs[:n])
	mask = int64Tensor(enc.AttentionMask[:n])
	if len(enc.TypeIDs) >= n {
		typeIds = int64Tensor(enc.TypeIDs[:n])
	} else {
		typeIds = make([]int64, n)
	}
	return ids, mask, typeIds
}

func (m *OnnxTextClassifier) Classify(ctx context.Context, text string) ([]LabelScore, error) {
	ids, mask, typeIds := m.encode(text)
	shape := ort.NewShape(1, int64(len(ids)))

	inputs := make([]ort.Value, 0, 3)
	defer func() { destroyAll(inputs) }()

	for _, data := range [][]int64{ids, mask, typeIds} {
		if len(inputs) == 2 && !m.useTokenTypeIds {
			break
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("error creating input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	outputs, err := m.session.Run(inputs...)
	if err != nil {
		return nil, err
	}
	defer destroyAll(outputs)

	logits, _, err := tensorData[float32](outputs[0], "logits")
	if err != nil {
		return nil, err
	}

	return labelScores(m.labels, Softmax(logits))
}

func (m *OnnxTextClassifier) Release() {
	m.session.Release()
	m.tokenizer.Close()
}
