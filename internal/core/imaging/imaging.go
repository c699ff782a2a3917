package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}
	return img, nil
}

// ResizeShorter scales img so that its shorter side equals size, keeping the aspect ratio.
func ResizeShorter(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// CenterCrop cuts a size x size square out of the middle of img. Images smaller than the
// crop are returned unchanged.
func CenterCrop(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() < size || b.Dy() < size {
		return img
	}
	x0 := b.Min.X + (b.Dx()-size)/2
	y0 := b.Min.Y + (b.Dy()-size)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return dst
}

func rgb(img image.Image, x, y int) (r, g, b float32) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return float32(cr>>8) / 255, float32(cg>>8) / 255, float32(cb>>8) / 255
}

// NormalizedCHW returns the image as a planar float tensor (channel, row, column) with each
// channel normalized by (v - mean) / std.
func NormalizedCHW(img image.Image, mean, std [3]float32) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := rgb(img, b.Min.X+x, b.Min.Y+y)
			i := y*w + x
			out[i] = (r - mean[0]) / std[0]
			out[plane+i] = (g - mean[1]) / std[1]
			out[2*plane+i] = (bl - mean[2]) / std[2]
		}
	}
	return out
}

// NHWC returns the image as interleaved RGB floats in [0, 1].
func NHWC(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float32, 0, 3*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := rgb(img, b.Min.X+x, b.Min.Y+y)
			out = append(out, r, g, bl)
		}
	}
	return out
}

// ClassificationTensor applies the standard ImageNet evaluation transform: resize the shorter
// side to 256, center crop 224 and normalize. It returns the data with shape [1, 3, 224, 224].
func ClassificationTensor(img image.Image) ([]float32, []int64) {
	cropped := CenterCrop(ResizeShorter(img, 256), 224)
	b := cropped.Bounds()
	return NormalizedCHW(cropped, ImageNetMean, ImageNetStd), []int64{1, 3, int64(b.Dy()), int64(b.Dx())}
}
