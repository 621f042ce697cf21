package imageproc

import (
	"bytes"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

const (
	minWidth  = 100
	minHeight = 100
)

type Options struct {
	MaxWidth          int
	MaxHeight         int
	Quality           int // JPEG quality percent
	Format            string
	Background        color.NRGBA
	MaxUploadBytes    int64
	ReencodeOverBytes int64
	AllowedMime       []string
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	bg, err := ParseHexColor(cfg.IMAGE.Background)
	if err != nil {
		return Options{}, errors.Wrapf(err, "failed parsing image background %q", cfg.IMAGE.Background)
	}
	return Options{
		MaxWidth:          cfg.IMAGE.MaxWidth,
		MaxHeight:         cfg.IMAGE.MaxHeight,
		Quality:           cfg.IMAGE.Quality,
		Format:            cfg.IMAGE.Format,
		Background:        bg,
		MaxUploadBytes:    cfg.IMAGE.MaxUploadBytes,
		ReencodeOverBytes: cfg.IMAGE.ReencodeOverBytes,
		AllowedMime:       cfg.IMAGE.AllowedMime,
	}, nil
}

func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, errors.Errorf("expected #RRGGBB, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "bad hex color %q", s)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// Processed is the upload-ready payload.
type Processed struct {
	Data     []byte
	MimeType string
	Filename string
}

// Process validates and re-encodes one image file: fit into the bounding
// box preserving aspect ratio, centered on a background-filled canvas.
// Small originals that already fit the box are passed through untouched.
func Process(path string, opts Options) (*Processed, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start Process %s", path)
	defer logger.Debug("End Process")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in os.ReadFile(%s)", path)
	}

	if opts.MaxUploadBytes > 0 && int64(len(data)) > opts.MaxUploadBytes {
		return nil, errors.Errorf("file %s is %d bytes, over the %d byte upload limit",
			filepath.Base(path), len(data), opts.MaxUploadBytes)
	}

	mime := http.DetectContentType(data)
	if !mimeAllowed(mime, opts.AllowedMime) {
		return nil, errors.Errorf("file %s has unsupported type %s", filepath.Base(path), mime)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding %s", filepath.Base(path))
	}

	bounds := img.Bounds()
	if bounds.Dx() < minWidth || bounds.Dy() < minHeight {
		return nil, errors.Errorf("image %s is %dx%d, below the %dx%d minimum",
			filepath.Base(path), bounds.Dx(), bounds.Dy(), minWidth, minHeight)
	}

	needsResize := bounds.Dx() > opts.MaxWidth || bounds.Dy() > opts.MaxHeight
	large := opts.ReencodeOverBytes > 0 && int64(len(data)) > opts.ReencodeOverBytes
	if !needsResize && !large {
		return &Processed{
			Data:     data,
			MimeType: mime,
			Filename: filepath.Base(path),
		}, nil
	}

	fitted := imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	canvas := imaging.New(opts.MaxWidth, opts.MaxHeight, opts.Background)
	out := imaging.PasteCenter(canvas, fitted)

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "jpeg"
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	var buf bytes.Buffer
	var outMime, ext string
	switch format {
	case "jpeg", "jpg":
		err = imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality))
		outMime, ext = "image/jpeg", ".jpg"
	case "png":
		err = imaging.Encode(&buf, out, imaging.PNG)
		outMime, ext = "image/png", ".png"
	default:
		return nil, errors.Errorf("unsupported output format %q", opts.Format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed encoding %s as %s", filepath.Base(path), format)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	logger.Debugf("re-encoded %s: %d -> %d bytes", filepath.Base(path), len(data), buf.Len())

	return &Processed{
		Data:     buf.Bytes(),
		MimeType: outMime,
		Filename: base + ext,
	}, nil
}

func mimeAllowed(mime string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), mime) {
			return true
		}
	}
	return false
}
