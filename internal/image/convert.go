package image

import (
	"image"
	"image/color"
	"math"
)

// Luma converts img to a grayscale plane in [0, 255] using the unweighted
// mean of the red, green and blue channels.
func Luma(img image.Image) *Plane {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	p := &Plane{data: make([]float32, width*height), width: width, height: height}

	// Fast path for RGBA and NRGBA images
	var pix []uint8
	var stride int
	switch m := img.(type) {
	case *image.RGBA:
		pix, stride = m.Pix, m.Stride
	case *image.NRGBA:
		pix, stride = m.Pix, m.Stride
	}
	if pix != nil {
		for y := range height {
			row := pix[y*stride : y*stride+width*4]
			dst := p.Row(y)
			for x := range width {
				i := x * 4
				dst[x] = float32(int(row[i])+int(row[i+1])+int(row[i+2])) / 3
			}
		}
		return p
	}

	// Generic slow path for any image type
	for y := range height {
		dst := p.Row(y)
		for x := range width {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA() returns 16-bit values, scale to 8-bit
			dst[x] = float32((r>>8)+(g>>8)+(b>>8)) / 3
		}
	}
	return p
}

// MaskPlane converts a mask image to a plane in [0, 1] from its gray level.
func MaskPlane(img image.Image) *Plane {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	p := &Plane{data: make([]float32, width*height), width: width, height: height}

	if gray, ok := img.(*image.Gray); ok {
		for y := range height {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			dst := p.Row(y)
			for x, v := range row {
				dst[x] = float32(v) / 255
			}
		}
		return p
	}

	for y := range height {
		dst := p.Row(y)
		for x := range width {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			dst[x] = float32(g.Y) / 0xffff
		}
	}
	return p
}

// ToGray converts the plane to an 8-bit image, multiplying each sample by
// scale, rounding, and clamping to [0, 255].
func (p *Plane) ToGray(scale float32) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, p.width, p.height))
	for y := range p.height {
		src := p.Row(y)
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+p.width]
		for x, v := range src {
			dst[x] = clampUint8(v * scale)
		}
	}
	return gray
}

// clampUint8 rounds v and clamps it to [0, 255]. NaN maps to 0.
func clampUint8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(float64(v)))
}
