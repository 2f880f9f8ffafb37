package classifier

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Input geometry and per-channel BGR means of the ResNet50 preprocessing the
// model was trained with.
const (
	InputWidth    = 224
	InputHeight   = 224
	InputChannels = 3
)

var bgrMeans = [InputChannels]float32{103.939, 116.779, 123.68}

// Tensor is a dense float32 tensor in row-major (NHWC) order.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Decode parses PNG or JPEG bytes.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnreadableImage)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return img, nil
}

// Preprocess resizes img to the model input size with nearest-neighbour
// sampling, converts RGB to BGR and subtracts the ImageNet channel means.
// Alpha is dropped without premultiplying, so translucent pixels keep their
// stored colour. The result has shape [1, InputHeight, InputWidth, InputChannels].
func Preprocess(img image.Image) Tensor {
	src := opaque(img)
	dst := image.NewRGBA(image.Rect(0, 0, InputWidth, InputHeight))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	data := make([]float32, 0, InputWidth*InputHeight*InputChannels)
	for y := 0; y < InputHeight; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+InputWidth*4]
		for x := 0; x < InputWidth; x++ {
			px := row[x*4 : x*4+4]
			r, g, b := float32(px[0]), float32(px[1]), float32(px[2])
			data = append(data, b-bgrMeans[0], g-bgrMeans[1], r-bgrMeans[2])
		}
	}
	return Tensor{
		Shape: []int{1, InputHeight, InputWidth, InputChannels},
		Data:  data,
	}
}

// opaque copies the straight (non-premultiplied) RGB channels of img into a
// fully opaque canvas. Scaling an opaque image cannot darken translucent
// pixels the way premultiplied RGBA would.
func opaque(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := straightRGB(img, x, y)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, 0xff
		}
	}
	return out
}

func straightRGB(img image.Image, x, y int) (r, g, b uint8) {
	switch m := img.(type) {
	case *image.NRGBA:
		c := m.NRGBAAt(x, y)
		return c.R, c.G, c.B
	case *image.NRGBA64:
		c := m.NRGBA64At(x, y)
		return uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8)
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

// nested reshapes a single-image tensor into [height][width][channels] for
// JSON transports that expect nested arrays.
func (t Tensor) nested() [][][]float32 {
	h, w, c := t.Shape[1], t.Shape[2], t.Shape[3]
	out := make([][][]float32, h)
	for y := 0; y < h; y++ {
		out[y] = make([][]float32, w)
		for x := 0; x < w; x++ {
			off := (y*w + x) * c
			out[y][x] = t.Data[off : off+c : off+c]
		}
	}
	return out
}
