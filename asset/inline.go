package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/chaos-io/rembg/util"
	nhttp "github.com/chaos-io/rembg/util/http"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

type Options struct {
	// VarName 为空时由文件名生成，例如 nook.png -> nookBase64
	VarName string
	MaxSize int
	Trim    bool
}

// Asset 内联到 JS 的图片
type Asset struct {
	Source    string
	VarName   string
	MediaType string
	Data      []byte
	Width     int
	Height    int
}

func (a *Asset) DataURI() string {
	return DataURI(a.MediaType, a.Data)
}

// JS 生成 window.<var> = "data:...";
func (a *Asset) JS() string {
	return fmt.Sprintf("window.%s = \"%s\";", a.VarName, a.DataURI())
}

func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Load 读取图片（本地或 URL），需要时缩放/裁剪后重新编码为 PNG
func Load(ctx context.Context, cli nhttp.IClient, src string, opts Options) (*Asset, error) {
	name := opts.VarName
	if name == "" {
		name = VarName(src)
	}
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("invalid JS identifier %q", name)
	}

	data, err := readSource(ctx, cli, src)
	if err != nil {
		return nil, err
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", src, mt.String())
	}

	img, err := util.DecodeImage(bytes.NewReader(data), src)
	if err != nil {
		return nil, err
	}

	a := &Asset{
		Source:    src,
		VarName:   name,
		MediaType: mt.String(),
		Data:      data,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
	}
	if opts.MaxSize <= 0 && !opts.Trim {
		return a, nil
	}

	out, err := Prepare(img, opts.MaxSize, opts.Trim)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", src, err)
	}
	a.Data, err = util.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	a.MediaType = "image/png"
	a.Width, a.Height = out.Bounds().Dx(), out.Bounds().Dy()
	return a, nil
}

// WriteJS 覆盖写入 path
func WriteJS(path string, a *Asset) error {
	if err := os.WriteFile(path, []byte(a.JS()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readSource(ctx context.Context, cli nhttp.IClient, src string) ([]byte, error) {
	if util.IsURL(src) {
		var data []byte
		err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
			RequestURI: src,
			Method:     http.MethodGet,
			Response:   &data,
		})
		if err != nil {
			return nil, &util.ImageError{Kind: util.KindRead, Path: src, Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, &util.ImageError{Kind: util.KindRead, Path: src, Err: err}
	}
	return data, nil
}

// VarName 由文件名生成 JS 变量名: player-idle.png -> playerIdleBase64
func VarName(src string) string {
	base := filepath.Base(src)
	if util.IsURL(src) {
		base = src[strings.LastIndex(src, "/")+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder
	upper := false
	for _, r := range base {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = sb.Len() > 0
			continue
		}
		switch {
		case sb.Len() == 0:
			if unicode.IsDigit(r) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		case upper:
			sb.WriteRune(unicode.ToUpper(r))
		default:
			sb.WriteRune(r)
		}
		upper = false
	}
	if sb.Len() == 0 {
		sb.WriteString("image")
	}
	sb.WriteString("Base64")
	return sb.String()
}
