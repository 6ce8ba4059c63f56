package rembg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Mode 背景色的来源
type Mode int

const (
	// ModeSampled 以左上角 (0,0) 像素为参考色，按阈值逐通道比较
	ModeSampled Mode = iota
	// ModeGreenScreen 固定绿幕，按各通道上下界判断
	ModeGreenScreen
)

func (m Mode) String() string {
	switch m {
	case ModeGreenScreen:
		return "greenscreen"
	default:
		return "sampled"
	}
}

// ParseMode 解析命令行/表单里的模式名
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sampled", "sample", "quick":
		return ModeSampled, nil
	case "greenscreen", "green-screen", "green", "fixed":
		return ModeGreenScreen, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

const DefaultThreshold = 30

var (
	// Transparent 被判定为背景的像素统一写成该值
	Transparent = color.NRGBA{R: 255, G: 255, B: 255, A: 0}

	ErrEmptyImage        = errors.New("image has no pixels to sample")
	ErrNegativeThreshold = errors.New("threshold must not be negative")
)

// GreenBounds 绿幕判定: R < MaxR && G > MinG && B < MaxB
type GreenBounds struct {
	MaxR uint8
	MinG uint8
	MaxB uint8
}

var DefaultGreenBounds = GreenBounds{MaxR: 120, MinG: 180, MaxB: 120}

// MatchRule 判断单个像素是否属于背景。
// 两种规则语义不同（对称阈值 vs 非对称上下界），分别由 SampledRule 和 GreenScreenRule 构造。
type MatchRule struct {
	mode      Mode
	ref       color.NRGBA
	threshold int
	bounds    GreenBounds
}

func SampledRule(ref color.NRGBA, threshold int) MatchRule {
	return MatchRule{mode: ModeSampled, ref: ref, threshold: threshold}
}

func GreenScreenRule(bounds GreenBounds) MatchRule {
	return MatchRule{mode: ModeGreenScreen, bounds: bounds}
}

func (r MatchRule) Mode() Mode {
	return r.mode
}

// Reference 采样得到的参考色，绿幕模式下为零值
func (r MatchRule) Reference() color.NRGBA {
	return r.ref
}

// Matches 忽略 alpha 通道
func (r MatchRule) Matches(c color.NRGBA) bool {
	if r.mode == ModeGreenScreen {
		return c.R < r.bounds.MaxR && c.G > r.bounds.MinG && c.B < r.bounds.MaxB
	}
	return absDiff(c.R, r.ref.R) < r.threshold &&
		absDiff(c.G, r.ref.G) < r.threshold &&
		absDiff(c.B, r.ref.B) < r.threshold
}

func (r MatchRule) String() string {
	if r.mode == ModeGreenScreen {
		return fmt.Sprintf("greenscreen(R<%d G>%d B<%d)", r.bounds.MaxR, r.bounds.MinG, r.bounds.MaxB)
	}
	return fmt.Sprintf("sampled(ref=%d,%d,%d threshold=%d)", r.ref.R, r.ref.G, r.ref.B, r.threshold)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Policy 描述如何为一张图得到 MatchRule
type Policy struct {
	Mode      Mode
	Threshold int
	Bounds    GreenBounds
}

func SampledPolicy(threshold int) Policy {
	return Policy{Mode: ModeSampled, Threshold: threshold}
}

func GreenScreenPolicy(bounds GreenBounds) Policy {
	return Policy{Mode: ModeGreenScreen, Bounds: bounds}
}

// Rule 采样模式下读取 img 左上角像素作为参考色
func (p Policy) Rule(img *image.NRGBA) (MatchRule, error) {
	if p.Mode == ModeGreenScreen {
		return GreenScreenRule(p.Bounds), nil
	}
	if p.Threshold < 0 {
		return MatchRule{}, ErrNegativeThreshold
	}
	b := img.Bounds()
	if b.Empty() {
		return MatchRule{}, ErrEmptyImage
	}
	return SampledRule(img.NRGBAAt(b.Min.X, b.Min.Y), p.Threshold), nil
}
