package core

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"lambda-ml/internal/core/imaging"

	ort "github.com/yalue/onnxruntime_go"
)

type ImageModelConfig struct {
	ModelPath  string
	Labels     []string
	InputName  string
	OutputName string
}

func (c ImageModelConfig) names(defaultIn, defaultOut string) (string, string) {
	in, out := c.InputName, c.OutputName
	if in == "" {
		in = defaultIn
	}
	if out == "" {
		out = defaultOut
	}
	return in, out
}

// OnnxImageClassifier serves an ImageNet style classifier taking a normalized
// [1, 3, 224, 224] tensor.
type OnnxImageClassifier struct {
	session *OnnxSession
	labels  []string
}

var _ ImageClassifier = (*OnnxImageClassifier)(nil)

func LoadOnnxImageClassifier(cfg ImageModelConfig) (*OnnxImageClassifier, error) {
	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("image classifier requires labels")
	}
	in, out := cfg.names("input", "output")
	session, err := NewOnnxSession(cfg.ModelPath, []string{in}, []string{out})
	if err != nil {
		return nil, err
	}
	return &OnnxImageClassifier{session: session, labels: cfg.Labels}, nil
}

func (m *OnnxImageClassifier) Classify(ctx context.Context, img image.Image) (LabelScore, error) {
	data, shape := imaging.ClassificationTensor(img)
	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return LabelScore{}, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs, err := m.session.Run(input)
	if err != nil {
		return LabelScore{}, err
	}
	defer destroyAll(outputs)

	logits, _, err := tensorData[float32](outputs[0], "output")
	if err != nil {
		return LabelScore{}, err
	}
	return topClass(m.labels, logits)
}

func topClass(labels []string, logits []float32) (LabelScore, error) {
	if len(logits) != len(labels) {
		return LabelScore{}, fmt.Errorf("%w: model produced %d logits for %d classes", ErrShapeMismatch, len(logits), len(labels))
	}
	probs := Softmax(logits)
	best := Argmax(probs)
	if best < 0 {
		return LabelScore{}, fmt.Errorf("%w: model produced no logits", ErrShapeMismatch)
	}
	return LabelScore{Label: labels[best], Score: probs[best]}, nil
}

func (m *OnnxImageClassifier) Release() {
	m.session.Release()
}

type Detections struct {
	Boxes         [][]float32 `json:"detection_boxes"`
	Scores        []float32   `json:"detection_scores"`
	ClassEntities []string    `json:"detection_class_entities"`
}

type DetectorConfig struct {
	ModelPath string
	Labels    []string
	// LabelOffset is subtracted from the class ids the graph emits before the label lookup;
	// TensorFlow detection models count classes from 1.
	LabelOffset int
}

// OnnxObjectDetector serves a TensorFlow object detection graph converted to ONNX. The graph
// takes a [1, H, W, 3] float image in [0, 1] and emits detection_boxes, detection_scores and
// detection_classes.
type OnnxObjectDetector struct {
	session     *OnnxSession
	labels      []string
	labelOffset int
}

var _ ObjectDetector = (*OnnxObjectDetector)(nil)

var detectorOutputs = []string{"detection_boxes", "detection_scores", "detection_classes"}

func LoadOnnxObjectDetector(cfg DetectorConfig) (*OnnxObjectDetector, error) {
	session, err := NewOnnxSession(cfg.ModelPath, []string{"images"}, detectorOutputs)
	if err != nil {
		return nil, err
	}
	return &OnnxObjectDetector{session: session, labels: cfg.Labels, labelOffset: cfg.LabelOffset}, nil
}

func (m *OnnxObjectDetector) Detect(ctx context.Context, img image.Image) (Detections, error) {
	b := img.Bounds()
	input, err := ort.NewTensor(ort.NewShape(1, int64(b.Dy()), int64(b.Dx()), 3), imaging.NHWC(img))
	if err != nil {
		return Detections{}, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs, err := m.session.Run(input)
	if err != nil {
		return Detections{}, err
	}
	defer destroyAll(outputs)

	var data [3][]float32
	for i, name := range detectorOutputs {
		values, _, err := tensorData[float32](outputs[i], name)
		if err != nil {
			return Detections{}, err
		}
		data[i] = values
	}

	return BuildDetections(data[0], data[1], data[2], m.labels, m.labelOffset)
}

func (m *OnnxObjectDetector) Release() {
	m.session.Release()
}

// BuildDetections converts the flat detector outputs into per detection rows. Class ids
// without a label are reported as their number.
func BuildDetections(boxes, scores, classes []float32, labels []string, labelOffset int) (Detections, error) {
	n := len(scores)
	if len(classes) != n || len(boxes) != 4*n {
		return Detections{}, fmt.Errorf(
			"%w: got %d boxes, %d scores and %d classes", ErrShapeMismatch, len(boxes)/4, n, len(classes),
		)
	}

	rows, err := SplitRows(boxes, 4)
	if err != nil {
		return Detections{}, err
	}

	det := Detections{
		Boxes:         make([][]float32, n),
		Scores:        make([]float32, n),
		ClassEntities: make([]string, n),
	}
	copy(det.Scores, scores)
	for i := 0; i < n; i++ {
		det.Boxes[i] = append([]float32(nil), rows[i]...)
		id := int(classes[i]) - labelOffset
		if id >= 0 && id < len(labels) {
			det.ClassEntities[i] = labels[id]
		} else {
			det.ClassEntities[i] = strconv.Itoa(int(classes[i]))
		}
	}
	return det, nil
}
