package sky

import (
	"bufio"
	"image/png"
	"io"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG writes the raster as an 8-bit RGB PNG. The image is opaque so
// the encoder drops the alpha channel.
func EncodePNG(w io.Writer, out *OutputRaster) error {
	if out == nil || out.Pixels[0].Empty() {
		return Internal(nil, "nothing to encode")
	}
	bw := bufio.NewWriter(w)
	if err := pngEncoder.Encode(bw, out.Pixels.Image()); err != nil {
		return Internal(err, "png encode")
	}
	if err := bw.Flush(); err != nil {
		return Internal(err, "png write")
	}
	return nil
}
