// Package webp is the root of a pure Go WebP codec core. The root package
// itself exports nothing; the work is done by the internal packages:
//   - internal/container: RIFF/VP8X/ANIM/ANMF chunk parsing
//   - internal/lossy: VP8 frame decoding, plus the alpha-plane codec
//   - internal/lossless: VP8L decoding and lossless histogram clustering
//   - internal/dsp: prediction, transform, filter and color-conversion kernels
//
// There is no public Decode/Encode API and no animation compositing. The
// cmd/webpcore command drives the decoders and the clusterer from the
// command line.
package webp
