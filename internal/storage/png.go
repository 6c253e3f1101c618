package storage

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"io"
)

const (
	pngColorTypeRGBA = 6
	pngFilterSub     = 1
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// encodePNGRGBA writes img as a non-interlaced 8-bit PNG with color type 6. The alpha channel is
// written even when every pixel is opaque; image/png would emit color type 2 in that case.
func encodePNGRGBA(w io.Writer, img *image.NRGBA) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	if _, err := w.Write(pngSignature); err != nil {
		return err
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8
	ihdr[9] = pngColorTypeRGBA
	if err := writePNGChunk(w, "IHDR", ihdr); err != nil {
		return err
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	rowLen := width * 4
	line := make([]byte, rowLen+1)
	line[0] = pngFilterSub
	for y := 0; y < height; y++ {
		px := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):][:rowLen]
		for i := 0; i < rowLen; i++ {
			var left byte
			if i >= 4 {
				left = px[i-4]
			}
			line[i+1] = px[i] - left
		}
		if _, err := zw.Write(line); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := writePNGChunk(w, "IDAT", idat.Bytes()); err != nil {
		return err
	}
	return writePNGChunk(w, "IEND", nil)
}

func writePNGChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	for _, part := range [][]byte{hdr[:], data, sum[:]} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}
