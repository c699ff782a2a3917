package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lambda-ml/internal/core"
	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/storage"
)

// S3FileEvent names an input object as bucket/prefix+file. Prefix must be present but may be
// empty.
type S3FileEvent struct {
	File   string  `json:"file"`
	Bucket string  `json:"bucket"`
	Prefix *string `json:"prefix"`
}

func (e S3FileEvent) validate() error {
	switch {
	case e.File == "":
		return missing("file")
	case e.Bucket == "":
		return missing("bucket")
	case e.Prefix == nil:
		return missing("prefix")
	}
	return nil
}

func (e S3FileEvent) Key() string {
	if e.Prefix == nil {
		return e.File
	}
	return *e.Prefix + e.File
}

// fileDownloader copies event inputs into the function's scratch directory.
type fileDownloader struct {
	store  storage.Provider
	tmpDir string
}

// download fetches the event's object into a directory of its own, so concurrent invocations
// for the same file never share a path. cleanup removes that directory.
func (d fileDownloader) download(ctx context.Context, event S3FileEvent) (local string, cleanup func(), err error) {
	if err := event.validate(); err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp(d.tmpDir, "event-")
	if err != nil {
		return "", nil, fmt.Errorf("error creating download directory: %w", err)
	}
	cleanup = func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("error removing download directory", "dir", dir, "error", err)
		}
	}

	local = filepath.Join(dir, filepath.Base(event.File))
	if err := d.store.DownloadObject(ctx, event.Bucket, event.Key(), local); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("error downloading s3://%s/%s: %w", event.Bucket, event.Key(), err)
	}
	return local, cleanup, nil
}

// Label columns of the bank marketing export that are not model inputs.
var bankMarketingTargets = []string{"y_no", "y_yes"}

type PredictionList struct {
	Result []int `json:"result"`
}

type BankMarketing struct {
	Store  storage.Provider
	Model  core.Classifier
	TmpDir string
}

func (h *BankMarketing) Handle(ctx context.Context, event S3FileEvent) (string, error) {
	slog.Info("received event", "event", event)
	path, cleanup, err := fileDownloader{store: h.Store, tmpDir: h.TmpDir}.download(ctx, event)
	if err != nil {
		return "", err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	frame, err := dataset.ReadCSV(file, true)
	if err != nil {
		return "", invalid("%v", err)
	}
	features, err := frame.Drop(bankMarketingTargets...)
	if err != nil {
		return "", invalid("%v", err)
	}
	rows, err := features.Floats()
	if err != nil {
		return "", invalid("%v", err)
	}

	preds, err := h.Model.Predict(rows)
	if err != nil {
		return "", fmt.Errorf("error predicting: %w", err)
	}

	result := PredictionList{Result: preds}
	slog.Info("returning", "result", result)
	return jsonString(result)
}

// Digits classifies every sample of a .npy batch and returns the argmax class per row.
type Digits struct {
	Store  storage.Provider
	Model  core.TensorModel
	TmpDir string
}

func (h *Digits) Handle(ctx context.Context, event S3FileEvent) (Envelope, error) {
	slog.Info("received event", "event", event)
	path, cleanup, err := fileDownloader{store: h.Store, tmpDir: h.TmpDir}.download(ctx, event)
	if err != nil {
		return Envelope{}, err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return Envelope{}, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	data, shape, err := dataset.ReadNpy(file)
	if err != nil {
		return Envelope{}, invalid("%v", err)
	}
	if len(shape) == 0 || shape[0] == 0 {
		return Envelope{}, invalid("npy array has no samples")
	}

	outputs, err := h.Model.Predict(ctx, shape, data)
	if err != nil {
		return Envelope{}, fmt.Errorf("error predicting: %w", err)
	}

	result := make([]int, len(outputs))
	for i, row := range outputs {
		result[i] = core.Argmax(row)
	}
	slog.Info("returning", "result", result)
	return newEnvelope(result)
}

func (h *Digits) Release() {
	h.Model.Release()
}
