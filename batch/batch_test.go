package batch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/util"
)

// greenSquare 4x4 绿幕，中间 2x2 为红色主体
func greenSquare() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{G: 255, A: 255})
		}
	}
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, A: 255})
		}
	}
	return img
}

func TestPairs(t *testing.T) {
	jobs, err := Pairs([]string{"a.png", "a_out.png", "b.jpg", "b_out.png"})
	require.NoError(t, err)
	assert.Equal(t, []Job{{Input: "a.png", Output: "a_out.png"}, {Input: "b.jpg", Output: "b_out.png"}}, jobs)

	jobs, err = Pairs(nil)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, err = Pairs([]string{"a.png", "a_out.png", "dangling.png"})
	assert.Error(t, err)
}

func TestInPlace(t *testing.T) {
	assert.Equal(t, []Job{{Input: "x.png", Output: "x.png"}}, InPlace([]string{"x.png"}))
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()

	var jobs []Job
	for _, name := range []string{"one", "two", "three"} {
		in := filepath.Join(dir, name+".png")
		require.NoError(t, util.SavePNG(in, greenSquare()))
		jobs = append(jobs, Job{Input: in, Output: filepath.Join(dir, name+"_out.png")})
	}
	bad := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	jobs = append(jobs[:1], append([]Job{{Input: bad, Output: filepath.Join(dir, "broken_out.png")}}, jobs[1:]...)...)

	report := NewProcessor(rembg.GreenScreenPolicy(rembg.DefaultGreenBounds), nil).Run(context.Background(), jobs)

	require.Len(t, report.Results, 4)
	assert.Len(t, report.Succeeded(), 3)
	require.Len(t, report.Failed(), 1)

	failed := report.Failed()[0]
	assert.Equal(t, bad, failed.Job.Input)
	assert.Equal(t, util.KindDecode, util.KindOf(failed.Err))
	assert.NoFileExists(t, filepath.Join(dir, "broken_out.png"))

	for _, res := range report.Succeeded() {
		assert.Equal(t, 12, res.Removed)
		img, err := util.OpenImage(res.Job.Output)
		require.NoError(t, err)
		out := util.ToNRGBA(img)
		assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
		assert.Equal(t, rembg.Transparent, out.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{R: 220, A: 255}, out.NRGBAAt(1, 1))
	}

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "3 succeeded, 1 failed")
	assert.Contains(t, buf.String(), bad)
}

func TestRun_ErrorKinds(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	require.NoError(t, util.SavePNG(in, greenSquare()))

	jobs := []Job{
		{Input: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "missing_out.png")},
		{Input: in, Output: filepath.Join(dir, "no-such-dir", "out.png")},
	}
	report := NewProcessor(rembg.SampledPolicy(rembg.DefaultThreshold), nil).Run(context.Background(), jobs)

	require.Len(t, report.Failed(), 2)
	assert.Equal(t, util.KindRead, util.KindOf(report.Results[0].Err))
	assert.Equal(t, util.KindWrite, util.KindOf(report.Results[1].Err))
}

func TestProcess_InPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nook.png")
	require.NoError(t, util.SavePNG(path, greenSquare()))

	res := NewProcessor(rembg.GreenScreenPolicy(rembg.DefaultGreenBounds), nil).Process(context.Background(), InPlace([]string{path})[0])
	require.NoError(t, res.Err)

	img, err := util.OpenImage(path)
	require.NoError(t, err)
	assert.Equal(t, rembg.Transparent, util.ToNRGBA(img).NRGBAAt(3, 3))
}

func writeFile(t *testing.T, path string, encode func(f *os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f))
	require.NoError(t, f.Close())
}

func TestProcess_SixteenBitKeepsForeground(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "deep.png")
	src := image.NewNRGBA64(image.Rect(0, 0, 3, 1))
	src.SetNRGBA64(0, 0, color.NRGBA64{A: 0xffff})
	src.SetNRGBA64(1, 0, color.NRGBA64{R: 200 << 8, G: 50 << 8, B: 50 << 8, A: 0})
	src.SetNRGBA64(2, 0, color.NRGBA64{R: 200 << 8, G: 50 << 8, B: 50 << 8, A: 1 << 8})
	writeFile(t, in, func(f *os.File) error { return png.Encode(f, src) })

	job := Job{Input: in, Output: filepath.Join(dir, "deep_out.png")}
	res := NewProcessor(rembg.SampledPolicy(rembg.DefaultThreshold), nil).Process(context.Background(), job)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Removed)

	img, err := util.OpenImage(job.Output)
	require.NoError(t, err)
	out := util.ToNRGBA(img)
	assert.Equal(t, rembg.Transparent, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 50, B: 50, A: 0}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 50, B: 50, A: 1}, out.NRGBAAt(2, 0))
}

func TestProcess_OpaqueSources(t *testing.T) {
	// 左半黑色背景，右半白色主体
	halves := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.NRGBA{A: 255}
			if x >= 8 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			halves.SetNRGBA(x, y, c)
		}
	}
	gray := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x >= 8 {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	tests := []struct {
		name   string
		file   string
		encode func(f *os.File) error
	}{
		{"jpeg", "photo.jpg", func(f *os.File) error { return jpeg.Encode(f, halves, &jpeg.Options{Quality: 100}) }},
		{"gray png", "gray.png", func(f *os.File) error { return png.Encode(f, gray) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			job := Job{Input: filepath.Join(dir, tt.file), Output: filepath.Join(dir, "out.png")}
			writeFile(t, job.Input, tt.encode)

			res := NewProcessor(rembg.SampledPolicy(rembg.DefaultThreshold), nil).Process(context.Background(), job)
			require.NoError(t, res.Err)
			assert.Equal(t, 16, res.Width)
			assert.Equal(t, 16, res.Height)
			assert.Equal(t, 128, res.Removed)

			img, err := util.OpenImage(job.Output)
			require.NoError(t, err)
			out := util.ToNRGBA(img)
			assert.Equal(t, image.Rect(0, 0, 16, 16), out.Bounds())
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					c := out.NRGBAAt(x, y)
					if x < 8 {
						assert.Equal(t, rembg.Transparent, c, "pixel (%d,%d)", x, y)
						continue
					}
					assert.Equal(t, uint8(255), c.A, "pixel (%d,%d)", x, y)
					assert.Greater(t, c.R, uint8(200), "pixel (%d,%d)", x, y)
				}
			}
		})
	}
}
