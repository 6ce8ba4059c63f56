package rembg

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"

	"github.com/chaos-io/rembg/util"
)

type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// KeyRemover 按颜色规则抠掉背景
type KeyRemover struct {
	policy Policy
}

func NewKeyRemover(policy Policy) *KeyRemover {
	return &KeyRemover{policy: policy}
}

func (k *KeyRemover) Policy() Policy {
	return k.policy
}

func (k *KeyRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	out, _, err := k.Key(ctx, img)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Key 返回新图和被移除的像素数，不修改 img
func (k *KeyRemover) Key(ctx context.Context, img image.Image) (*image.NRGBA, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if img == nil {
		return nil, 0, errors.New("source image is nil")
	}

	out := util.ToNRGBA(img)
	rule, err := k.policy.Rule(out)
	if err != nil {
		return nil, 0, err
	}

	removed := Apply(out, rule)
	slog.Debug("keyed image",
		slog.String("rule", rule.String()),
		slog.Int("removed", removed),
		slog.Int("total", out.Bounds().Dx()*out.Bounds().Dy()))

	return out, removed, nil
}

// Apply 原地把匹配的像素改为 Transparent，返回改动的像素数
func Apply(img *image.NRGBA, rule MatchRule) int {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	removed := 0
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Min.X, y)+w*4]
		for i := 0; i < len(row); i += 4 {
			c := row[i : i+4 : i+4]
			if !rule.Matches(color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}) {
				continue
			}
			c[0], c[1], c[2], c[3] = Transparent.R, Transparent.G, Transparent.B, Transparent.A
			removed++
		}
	}
	return removed
}
