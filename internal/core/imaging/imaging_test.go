package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResizeShorter(t *testing.T) {
	img := solidImage(400, 200, color.White)

	resized := ResizeShorter(img, 256)
	assert.Equal(t, 512, resized.Bounds().Dx())
	assert.Equal(t, 256, resized.Bounds().Dy())

	tall := ResizeShorter(solidImage(100, 300, color.White), 256)
	assert.Equal(t, 256, tall.Bounds().Dx())
	assert.Equal(t, 768, tall.Bounds().Dy())
}

func TestCenterCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.RGBA{R: 255, A: 255})

	cropped := CenterCrop(img, 2)
	assert.Equal(t, image.Rect(0, 0, 2, 2), cropped.Bounds())
	r, _, _, _ := cropped.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	small := CenterCrop(img, 20)
	assert.Equal(t, img.Bounds(), small.Bounds())
}

func TestClassificationTensor(t *testing.T) {
	img := solidImage(300, 500, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	data, shape := ClassificationTensor(img)
	assert.Equal(t, []int64{1, 3, 224, 224}, shape)
	require.Len(t, data, 3*224*224)

	plane := 224 * 224
	assert.InDelta(t, (1-ImageNetMean[0])/ImageNetStd[0], data[0], 1e-5)
	assert.InDelta(t, (0-ImageNetMean[1])/ImageNetStd[1], data[plane], 1e-5)
	assert.InDelta(t, (0-ImageNetMean[2])/ImageNetStd[2], data[2*plane+plane-1], 1e-5)
}

func TestNHWC(t *testing.T) {
	img := solidImage(2, 1, color.RGBA{R: 255, G: 0, B: 255, A: 255})
	assert.Equal(t, []float32{1, 0, 1, 1, 0, 1}, NHWC(img))
}

func TestDecode(t *testing.T) {
	img, err := Decode(encodePNG(t, solidImage(3, 4, color.Black)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 4), img.Bounds())

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	payload := encodePNG(t, solidImage(1, 1, color.White))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kitten.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()

	data, err := fetcher.Fetch(context.Background(), server.URL+"/kitten.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}
