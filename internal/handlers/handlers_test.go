package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lambda-ml/internal/artifact"
	"lambda-ml/internal/core"
	"lambda-ml/internal/core/linear"
	"lambda-ml/internal/storage"
	"lambda-ml/internal/training"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sbinet/npyio/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMissingFieldError(t *testing.T) {
	err := missing("text")
	assert.ErrorIs(t, err, ErrMissingField)

	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "text", mf.Field)
	assert.Contains(t, err.Error(), `"text"`)
}

func TestTextClassify(t *testing.T) {
	model := &fakeText{scores: []core.LabelScore{{Label: "__label__1", Score: 0.2}, {Label: "__label__2", Score: 0.8}}}
	h := &TextClassify{Model: model}

	out, err := h.Handle(context.Background(), TextEvent{Text: "great product"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"prediction": "__label__2"}`, out)
	assert.Equal(t, "great product", model.got)

	_, err = h.Handle(context.Background(), TextEvent{})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestSentiment(t *testing.T) {
	model := &fakeText{scores: []core.LabelScore{
		{Label: "natural", Score: 0.25},
		{Label: "positive", Score: 0.5},
		{Label: "negative", Score: 0.25},
	}}
	h := &Sentiment{Model: model}

	out, err := h.Handle(context.Background(), SentimentEvent{HebrewText: "שלום"})
	require.NoError(t, err)
	assert.JSONEq(t, `[[{"label":"natural","score":0.25},{"label":"positive","score":0.5},{"label":"negative","score":0.25}]]`, out)

	_, err = h.Handle(context.Background(), SentimentEvent{})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestIris(t *testing.T) {
	model := &fakeClassifier{
		classes:  []string{"setosa", "versicolor", "virginica"},
		features: []string{"a", "b", "c", "d"},
		preds:    []int{0, 2},
	}
	h := &Iris{Model: model}

	out, err := h.Handle(context.Background(), IrisEvent{Data: [][]float64{{5.1, 3.5, 1.4, 0.2}, {6.3, 3.3, 6.0, 2.5}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"predictions": ["setosa", "virginica"]}`, out)

	_, err = h.Handle(context.Background(), IrisEvent{})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = h.Handle(context.Background(), IrisEvent{Data: [][]float64{{1, 2}}})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestBreastCancer(t *testing.T) {
	model := &fakeClassifier{
		classes:  []string{"B", "M"},
		features: []string{"radius_mean", "texture_mean"},
		preds:    []int{1},
	}
	h := &BreastCancer{Model: model}

	out, err := h.Handle(context.Background(), FeatureEvent{"texture_mean": 10.38, "radius_mean": 17.99})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": "M"}`, out)
	assert.Equal(t, [][]float64{{17.99, 10.38}}, model.rows)

	_, err = h.Handle(context.Background(), FeatureEvent{"radius_mean": 17.99})
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "texture_mean", mf.Field)
}

func newStore(t *testing.T) *storage.LocalProvider {
	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(context.Background(), "inputs"))
	return store
}

func prefix(s string) *string {
	return &s
}

func TestBankMarketing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	csv := "age,balance,y_no,y_yes\n30,1.5,1,0\n45,-2,0,1\n"
	require.NoError(t, store.PutObject(ctx, "inputs", "batch/test.csv", strings.NewReader(csv)))

	model := &fakeClassifier{preds: []int{0, 1}}
	h := &BankMarketing{Store: store, Model: model, TmpDir: t.TempDir()}

	out, err := h.Handle(ctx, S3FileEvent{File: "test.csv", Bucket: "inputs", Prefix: prefix("batch/")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": [0, 1]}`, out)
	assert.Equal(t, [][]float64{{30, 1.5}, {45, -2}}, model.rows)

	_, err = h.Handle(ctx, S3FileEvent{File: "test.csv", Bucket: "inputs"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = h.Handle(ctx, S3FileEvent{File: "missing.csv", Bucket: "inputs", Prefix: prefix("")})
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestS3FileEventDecoding(t *testing.T) {
	var event S3FileEvent
	require.NoError(t, json.Unmarshal([]byte(`{"file": "a.npy", "bucket": "b", "prefix": ""}`), &event))
	require.NoError(t, event.validate())
	assert.Equal(t, "a.npy", event.Key())

	event = S3FileEvent{}
	require.NoError(t, json.Unmarshal([]byte(`{"file": "a.npy", "bucket": "b"}`), &event))
	assert.ErrorIs(t, event.validate(), ErrMissingField)

	assert.ErrorIs(t, S3FileEvent{Bucket: "b", Prefix: prefix("")}.validate(), ErrMissingField)
	assert.ErrorIs(t, S3FileEvent{File: "f", Prefix: prefix("")}.validate(), ErrMissingField)
}

func TestDigits(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	var buf bytes.Buffer
	require.NoError(t, npy.Write(&buf, mat.NewDense(2, 4, []float64{0, 1, 0, 1, 1, 0, 1, 0})))
	require.NoError(t, store.PutObject(ctx, "inputs", "test_data.npy", &buf))

	model := &fakeTensor{out: [][]float32{{0.1, 0.9, 0}, {0.7, 0.2, 0.1}}}
	h := &Digits{Store: store, Model: model, TmpDir: t.TempDir()}

	out, err := h.Handle(ctx, S3FileEvent{File: "test_data.npy", Bucket: "inputs", Prefix: prefix("")})
	require.NoError(t, err)
	assert.Equal(t, 200, out.StatusCode)
	assert.JSONEq(t, `[1, 0]`, out.Body)
	assert.Equal(t, []int64{2, 4}, model.shape)

	require.NoError(t, store.PutObject(ctx, "inputs", "bad.npy", strings.NewReader("nope")))
	_, err = h.Handle(ctx, S3FileEvent{File: "bad.npy", Bucket: "inputs", Prefix: prefix("")})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestImageClassify(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(32, 16)}
	model := &fakeImageClassifier{best: core.LabelScore{Label: "tabby", Score: 0.75}}
	h := &ImageClassify{Fetcher: fetcher, Model: model}

	out, err := h.Handle(context.Background(), ImageEvent{URL: "https://example.com/cat.png"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class": "tabby", "probability": 0.75}`, out)
	assert.Equal(t, 32, model.bounds.Dx())

	_, err = h.Handle(context.Background(), ImageEvent{InputImageURL: "https://example.com/dish.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dish.png", fetcher.url)

	_, err = h.Handle(context.Background(), ImageEvent{})
	assert.ErrorIs(t, err, ErrMissingField)

	bad := &ImageClassify{Fetcher: &fakeFetcher{data: []byte("not an image")}, Model: model}
	_, err = bad.Handle(context.Background(), ImageEvent{URL: "https://example.com/x"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestObjectDetect(t *testing.T) {
	det := core.Detections{
		Boxes:         [][]float32{{0.1, 0.2, 0.5, 0.5}},
		Scores:        []float32{0.5},
		ClassEntities: []string{"Dog"},
	}
	h := &ObjectDetect{Fetcher: &fakeFetcher{data: pngBytes(8, 8)}, Model: &fakeDetector{det: det}}

	out, err := h.Handle(context.Background(), ImageEvent{URL: "https://example.com/dog.png"})
	require.NoError(t, err)
	assert.Equal(t, 200, out.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Body), &body))
	assert.Contains(t, body, "detection_boxes")
	assert.Contains(t, body, "detection_scores")
	assert.Equal(t, []any{"Dog"}, body["detection_class_entities"])
}

func TestDecodeBody(t *testing.T) {
	var body inferenceBody
	require.NoError(t, decodeBody(events.APIGatewayProxyRequest{Body: `{"data": [[1]]}`}, &body))
	assert.Equal(t, [][]float64{{1}}, body.Data)

	body = inferenceBody{}
	require.NoError(t, decodeBody(events.APIGatewayProxyRequest{Body: `"{\"data\": [[2]]}"`}, &body))
	assert.Equal(t, [][]float64{{2}}, body.Data)

	body = inferenceBody{}
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"data": [[3]]}`))
	require.NoError(t, decodeBody(events.APIGatewayProxyRequest{Body: encoded, IsBase64Encoded: true}, &body))
	assert.Equal(t, [][]float64{{3}}, body.Data)

	assert.ErrorIs(t, decodeBody(events.APIGatewayProxyRequest{}, &body), ErrMissingField)
	assert.ErrorIs(t, decodeBody(events.APIGatewayProxyRequest{Body: "{"}, &body), ErrInvalidEvent)
}

func TestRegressionTrainAndInference(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(ctx, "models"))

	x := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = 20 + 3*float64(i)
	}
	payload, err := json.Marshal(map[string]any{"data": map[string]any{"X": x, "y": y}})
	require.NoError(t, err)

	train := &RegressionTrain{Trainer: &training.RegressionTrainer{Store: store, Bucket: "models", Key: "model.json"}}
	res, err := train.Handle(ctx, events.APIGatewayProxyRequest{Body: string(payload)})
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)

	var report training.RegressionReport
	require.NoError(t, json.Unmarshal([]byte(res.Body), &report))
	assert.Equal(t, "success", report.Training)
	assert.InDelta(t, 1.0, report.RSquared, 1e-9)

	cache := artifact.NewCache(store, "models", "model.json", func(data []byte) (*linear.Model, error) {
		return linear.Load(bytes.NewReader(data))
	})
	infer := &RegressionInference{Models: cache}
	res, err = infer.Handle(ctx, events.APIGatewayProxyRequest{Body: `{"data": [[10], [100]]}`})
	require.NoError(t, err)

	var pred RegressionPrediction
	require.NoError(t, json.Unmarshal([]byte(res.Body), &pred))
	var values []float64
	require.NoError(t, json.Unmarshal([]byte(pred.Prediction), &values))
	assert.InDeltaSlice(t, []float64{50, 320}, values, 1e-6)

	_, err = infer.Handle(ctx, events.APIGatewayProxyRequest{Body: `{"data": []}`})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = train.Handle(ctx, events.APIGatewayProxyRequest{Body: `{"data": {"X": [[1]]}}`})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRegressionTrainConstantHoldout(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, store.CreateBucket(ctx, "models"))

	x := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = 20 + 3*float64(i)
		if i >= 40 {
			y[i] = 5
		}
	}
	payload, err := json.Marshal(map[string]any{"data": map[string]any{"X": x, "y": y}})
	require.NoError(t, err)

	train := &RegressionTrain{Trainer: &training.RegressionTrainer{Store: store, Bucket: "models", Key: "model.json"}}
	res, err := train.Handle(ctx, events.APIGatewayProxyRequest{Body: string(payload)})
	require.NoError(t, err)

	var report training.RegressionReport
	require.NoError(t, json.Unmarshal([]byte(res.Body), &report))
	assert.Equal(t, "success", report.Training)
	assert.Equal(t, 0.0, report.RSquared)

	_, err = store.HeadObject(ctx, "models", "model.json")
	assert.NoError(t, err)
}

func TestReleaseModels(t *testing.T) {
	text := &fakeText{}
	(&TextClassify{Model: text}).Release()
	assert.True(t, text.released)

	sentiment := &fakeText{}
	(&Sentiment{Model: sentiment}).Release()
	assert.True(t, sentiment.released)

	tensor := &fakeTensor{}
	(&Digits{Model: tensor}).Release()
	assert.True(t, tensor.released)

	classifier := &fakeImageClassifier{}
	(&ImageClassify{Model: classifier}).Release()
	assert.True(t, classifier.released)

	detector := &fakeDetector{}
	(&ObjectDetect{Model: detector}).Release()
	assert.True(t, detector.released)
}

func TestFileDownloaderSeparatesInvocations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.PutObject(ctx, "inputs", "batch/test.csv", strings.NewReader("a,b\n1,2\n")))

	tmp := t.TempDir()
	d := fileDownloader{store: store, tmpDir: tmp}
	event := S3FileEvent{File: "test.csv", Bucket: "inputs", Prefix: prefix("batch/")}

	first, cleanupFirst, err := d.download(ctx, event)
	require.NoError(t, err)
	second, cleanupSecond, err := d.download(ctx, event)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "test.csv", filepath.Base(first))
	for _, path := range []string{first, second} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(data))
	}

	cleanupFirst()
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
	cleanupSecond()

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBankMarketingCleansUp(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.PutObject(ctx, "inputs", "test.csv", strings.NewReader("age,y_no,y_yes\n30,1,0\n")))

	tmp := t.TempDir()
	h := &BankMarketing{Store: store, Model: &fakeClassifier{preds: []int{1}}, TmpDir: tmp}
	_, err := h.Handle(ctx, S3FileEvent{File: "test.csv", Bucket: "inputs", Prefix: prefix("")})
	require.NoError(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
