// Command webpcore drives the decoder core and the lossless histogram
// clusterer against real WebP files from the command line.
//
// Usage:
//
//	webpcore decode [-o out.png] <input.webp>   WebP -> PNG
//	webpcore cluster-debug [-quality N] [-cache-bits N] <input.webp>
//	                                             report histogram clustering stats
//
// Flags must precede the input path.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"

	"github.com/wpcore/webpcore/internal/container"
	"github.com/wpcore/webpcore/internal/dsp"
	"github.com/wpcore/webpcore/internal/lossless"
	"github.com/wpcore/webpcore/internal/lossy"
	"github.com/wpcore/webpcore/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(os.Args[2:])
	case "cluster-debug":
		err = runClusterDebug(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "webpcore: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "webpcore: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  webpcore decode [-o out.png] <input.webp>
  webpcore cluster-debug [-quality N] [-cache-bits N] <input.webp>
`)
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	out := fs.String("o", "", "output path (defaults to <input> with the format's extension)")
	format := fs.String("format", "png", "output format: png or bmp")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decode: expected exactly one input path")
	}
	if *format != "png" && *format != "bmp" {
		return fmt.Errorf("decode: unsupported -format %q (want png or bmp)", *format)
	}
	inPath := fs.Arg(0)
	outPath := *out
	if outPath == "" {
		outPath = inPath + "." + *format
	}

	log := logging.NopIfNil(nil)

	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	p, err := container.NewParser(data)
	if err != nil {
		return fmt.Errorf("parsing container: %w", err)
	}
	frames := p.Frames()
	if len(frames) == 0 {
		return fmt.Errorf("no image frames found")
	}
	frame := frames[0]

	log.Debug("decoding frame", zap.Bool("lossless", frame.IsLossless), zap.Int("width", frame.Width), zap.Int("height", frame.Height))

	img, err := decodeFrame(frame)
	if err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if *format == "bmp" {
		return bmp.Encode(f, img)
	}
	return png.Encode(f, img)
}

// decodeFrame decodes a single VP8/VP8L frame payload into an image.Image.
func decodeFrame(frame container.FrameInfo) (image.Image, error) {
	if frame.IsLossless {
		return lossless.DecodeVP8L(frame.Payload)
	}

	dec, width, height, y, yStride, u, v, uvStride, err := lossy.DecodeFrame(frame.Payload)
	if err != nil {
		return nil, err
	}
	defer lossy.ReleaseDecoder(dec)

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		yRow := y[row*yStride:]
		uRow := u[(row/2)*uvStride:]
		vRow := v[(row/2)*uvStride:]
		for col := 0; col < width; col++ {
			yy := int(yRow[col])
			uu := int(uRow[col/2])
			vv := int(vRow[col/2])
			off := img.PixOffset(col, row)
			img.Pix[off+0] = dsp.YUVToR(yy, vv)
			img.Pix[off+1] = dsp.YUVToG(yy, uu, vv)
			img.Pix[off+2] = dsp.YUVToB(yy, uu)
			img.Pix[off+3] = 0xff
		}
	}
	return img, nil
}

func runClusterDebug(args []string) error {
	fs := flag.NewFlagSet("cluster-debug", flag.ExitOnError)
	quality := fs.Int("quality", 75, "quality hint (0-100) used to size the clusterer")
	cacheBits := fs.Int("cache-bits", 0, "color cache bits (0 disables the cache)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("cluster-debug: expected exactly one input path")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	p, err := container.NewParser(data)
	if err != nil {
		return fmt.Errorf("parsing container: %w", err)
	}
	frames := p.Frames()
	if len(frames) == 0 {
		return fmt.Errorf("no image frames found")
	}
	frame := frames[0]

	img, err := decodeFrame(frame)
	if err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	refs := literalBackwardRefs(img)

	var scratch lossless.HistoScratch
	symbols, histoSet := lossless.GetHistoImageSymbols(
		frame.Width, frame.Height, refs, *quality, 0, *cacheBits, &scratch)

	fmt.Printf("tokens:        %d\n", refs.Len())
	fmt.Printf("clusters:      %d\n", histoSet.Size())
	fmt.Printf("histo symbols: %d (unique cluster ids: %d)\n", len(symbols), len(uniqueU16(symbols)))
	for i := 0; i < histoSet.Size(); i++ {
		fmt.Printf("  cluster %d: bit cost %d\n", i, lossless.PopulationCost(histoSet.Get(i)))
	}
	return nil
}

// literalBackwardRefs builds a BackwardRefs stream of plain per-pixel
// literal tokens from a decoded image, with no LZ77 matching. It exists to
// give cluster-debug something concrete to cluster: this module implements
// the histogram clustering stage of the lossless encoder, not the
// backward-reference (hash-chain) matcher that would normally feed it.
func literalBackwardRefs(img image.Image) *lossless.BackwardRefs {
	b := img.Bounds()
	refs := lossless.NewBackwardRefs(b.Dx() * b.Dy())
	for row := b.Min.Y; row < b.Max.Y; row++ {
		for col := b.Min.X; col < b.Max.X; col++ {
			r, g, bl, a := img.At(col, row).RGBA()
			argb := uint32(a>>8)<<24 | uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(bl>>8)
			refs.Add(lossless.LiteralPixel(argb))
		}
	}
	return refs
}

func uniqueU16(vs []uint16) map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(vs))
	for _, v := range vs {
		set[v] = struct{}{}
	}
	return set
}
