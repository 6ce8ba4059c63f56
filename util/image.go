package util

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/segmentio/ksuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	nhttp "github.com/chaos-io/rembg/util/http"
)

// IsURL 判断输入是否为远程图片
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoadImage 打开本地图片或下载远程图片
func LoadImage(ctx context.Context, cli nhttp.IClient, src string) (image.Image, error) {
	if IsURL(src) {
		return DownloadImage(ctx, cli, src)
	}
	return OpenImage(src)
}

// DownloadImage 下载图片
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string) (image.Image, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     http.MethodGet,
		Response:   &data,
	})
	if err != nil {
		return nil, newImageError(KindRead, url, err)
	}
	return DecodeImage(bytes.NewReader(data), url)
}

// OpenImage 打开本地图片
func OpenImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newImageError(KindRead, path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return DecodeImage(file, path)
}

// DecodeImage 解码任意已注册格式（png/jpeg/gif/bmp/tiff/webp）
func DecodeImage(r io.Reader, path string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, newImageError(KindDecode, path, err)
	}
	return img, nil
}

// SavePNG 把图片编码为 PNG 写入 path，已存在的文件会被覆盖并保留原权限。
// 先写入同目录的临时文件再 rename，编码失败时不会破坏原文件。
func SavePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), ksuid.New().String()))

	f, err := os.Create(tmp)
	if err != nil {
		return newImageError(KindWrite, path, err)
	}
	if fi, err := os.Stat(path); err == nil {
		if err := f.Chmod(fi.Mode().Perm()); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return newImageError(KindWrite, path, err)
		}
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return newImageError(KindWrite, path, fmt.Errorf("png encode: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return newImageError(KindWrite, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return newImageError(KindWrite, path, err)
	}
	return nil
}

// EncodePNG 编码为 PNG 字节
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ToNRGBA 复制为 NRGBA（非预乘 alpha），不修改原图。
// 没有 alpha 通道的图片转换后 alpha 为 255。
// NRGBA / NRGBA64 不经过预乘，透明像素的 RGB 原样保留。
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(b)

	switch src := img.(type) {
	case *image.NRGBA:
		// 逐行拷贝
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			j := dst.PixOffset(b.Min.X, y)
			copy(dst.Pix[j:j+b.Dx()*4], src.Pix[i:i+b.Dx()*4])
		}
	case *image.NRGBA64:
		// 16 位取高字节
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.NRGBA64At(x, y)
				dst.SetNRGBA(x, y, color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8)})
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
			}
		}
	}
	return dst
}
