package asset

import (
	"errors"
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/chaos-io/rembg/util"
)

var ErrNoForeground = errors.New("no foreground pixels found")

// Prepare 缩放（最长边 <= maxSize，0 表示不缩放）并按 alpha 裁掉透明边
func Prepare(img image.Image, maxSize int, trim bool) (*image.NRGBA, error) {
	out := util.ToNRGBA(img)

	if trim {
		bbox, err := alphaBBox(out, 0)
		if err != nil {
			return nil, err
		}
		out = crop(out, bbox)
	}

	if maxSize > 0 {
		out = resizeWithinMax(out, maxSize)
	}
	return out, nil
}

// alphaBBox 从 alpha 通道计算主体 bounding box
// 把 alpha > threshold * 255 的像素当作主体
func alphaBBox(img *image.NRGBA, threshold float64) (image.Rectangle, error) {
	b := img.Bounds()
	th := uint8(threshold * 255)

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] <= th {
				continue
			}
			found = true
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoForeground
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

func crop(img *image.NRGBA, rect image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// resizeWithinMax 缩放（最长边 <= maxSize），保持宽高比
func resizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	return util.ToNRGBA(resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3))
}
