package derivative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"

	"github.com/kingspeech/assetgen/internal/assets"
)

// Encoder defaults for the landing page assets.
const (
	DefaultQuality = 82
	DefaultMethod  = 6
)

// Options controls encoding and rebuild behaviour.
type Options struct {
	// Quality is the lossy WebP quality, 0-100.
	Quality int
	// Method is the libwebp compression effort, 0 (fast) to 6 (smallest).
	Method int
	// Incremental skips outputs that are newer than their source.
	Incremental bool
}

// DefaultOptions returns quality 82, method 6, full rebuild.
func DefaultOptions() Options {
	return Options{Quality: DefaultQuality, Method: DefaultMethod}
}

// Derivative describes one generated output file.
type Derivative struct {
	Spec         string
	SourcePath   string
	OutputPath   string
	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	Width        int
	Height       int
	Bytes        int64
	// Fresh is set when an incremental run left an up-to-date output untouched.
	Fresh bool
}

// Generator turns source images into WebP derivatives.
type Generator struct {
	opts Options
}

// New creates a generator with the given options.
func New(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Options returns the generator's settings.
func (g *Generator) Options() Options {
	return g.opts
}

// Generate writes exactly one derivative of src to out. A width of 0 re-encodes
// at native resolution; a source narrower than width is never upscaled.
func (g *Generator) Generate(ctx context.Context, src, out string, width int) (Derivative, error) {
	if err := ctx.Err(); err != nil {
		return Derivative{}, err
	}
	if err := checkSource(src); err != nil {
		return Derivative{}, err
	}

	img, err := decode(src)
	if err != nil {
		return Derivative{}, err
	}

	d, err := g.render(img, out, width)
	if err != nil {
		return Derivative{}, err
	}
	d.SourcePath = src
	return d, nil
}

// GenerateSpec writes every derivative of spec in width order. The source is
// decoded once. A missing source yields *MissingSourceError and no output.
func (g *Generator) GenerateSpec(ctx context.Context, spec assets.AssetSpec) ([]Derivative, error) {
	if err := checkSource(spec.SourcePath); err != nil {
		return nil, err
	}

	var (
		img     image.Image
		results = make([]Derivative, 0, len(spec.Widths))
	)

	for _, w := range spec.Widths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		out := spec.OutputPath(w)
		if g.opts.Incremental && isFresh(spec.SourcePath, out) {
			slog.Debug("Derivative up to date, skipping", "spec", spec.Name, "path", out)
			results = append(results, Derivative{
				Spec:        spec.Name,
				SourcePath:  spec.SourcePath,
				OutputPath:  out,
				TargetWidth: w,
				Fresh:       true,
			})
			continue
		}

		if img == nil {
			var err error
			if img, err = decode(spec.SourcePath); err != nil {
				return results, err
			}
		}

		d, err := g.render(img, out, w)
		if err != nil {
			return results, err
		}
		d.Spec = spec.Name
		d.SourcePath = spec.SourcePath
		results = append(results, d)
	}

	return results, nil
}

func (g *Generator) render(img image.Image, out string, width int) (Derivative, error) {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	flat := flatten(img)

	tw, th, resize := TargetSize(sw, sh, width)
	var dst image.Image = flat
	if resize {
		dst = imaging.Resize(flat, tw, th, imaging.Lanczos)
	}

	data, err := g.encode(dst, out)
	if err != nil {
		return Derivative{}, err
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return Derivative{}, &DirectoryError{Path: out, Err: err}
	}

	slog.Info("Generated derivative", "path", out, "width", tw, "height", th, "bytes", len(data))

	return Derivative{
		OutputPath:   out,
		SourceWidth:  sw,
		SourceHeight: sh,
		TargetWidth:  width,
		Width:        tw,
		Height:       th,
		Bytes:        int64(len(data)),
	}, nil
}

func (g *Generator) encode(img image.Image, out string) ([]byte, error) {
	if g.opts.Quality < 0 || g.opts.Quality > 100 {
		return nil, &EncodeError{Path: out, Err: fmt.Errorf("quality %d out of range 0-100", g.opts.Quality)}
	}
	if g.opts.Method < 0 || g.opts.Method > 6 {
		return nil, &EncodeError{Path: out, Err: fmt.Errorf("method %d out of range 0-6", g.opts.Method)}
	}

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(g.opts.Quality))
	if err != nil {
		return nil, &EncodeError{Path: out, Err: err}
	}
	opts.Method = g.opts.Method

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, &EncodeError{Path: out, Err: err}
	}
	return buf.Bytes(), nil
}

// TargetSize applies the no-upscale policy. It reports the output size and
// whether a resample is needed. Heights are rounded to the nearest pixel.
func TargetSize(w, h, width int) (int, int, bool) {
	if width <= 0 || w <= width {
		return w, h, false
	}
	nh := int(math.Round(float64(h) * float64(width) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return width, nh, true
}

// flatten converts any palette or alpha image into opaque RGB. Colour channels
// are kept and alpha is discarded, so transparent regions keep their stored colour.
func flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// decode reads pixels as stored; EXIF orientation tags are not applied.
func decode(src string) (image.Image, error) {
	img, err := imaging.Open(src)
	if err != nil {
		return nil, &DecodeError{Path: src, Err: err}
	}
	return img, nil
}

func checkSource(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingSourceError{Path: src}
		}
		return &DecodeError{Path: src, Err: fmt.Errorf("stat source: %w", err)}
	}
	if !info.Mode().IsRegular() {
		return &MissingSourceError{Path: src}
	}
	return nil
}

func isFresh(src, out string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	oi, err := os.Stat(out)
	if err != nil {
		return false
	}
	return !oi.ModTime().Before(si.ModTime())
}
