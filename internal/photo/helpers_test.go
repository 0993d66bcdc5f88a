package photo

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// exifSegment builds a minimal little-endian APP1 segment whose Exif IFD holds
// a single DateTimeOriginal tag.
func exifSegment(dateTimeOriginal string) []byte {
	value := append([]byte(dateTimeOriginal), 0)

	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.WriteString("II")
	binary.Write(&tiff, le, uint16(42))
	binary.Write(&tiff, le, uint32(8))

	// IFD0: one entry pointing at the Exif IFD at offset 26.
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x8769))
	binary.Write(&tiff, le, uint16(4))
	binary.Write(&tiff, le, uint32(1))
	binary.Write(&tiff, le, uint32(26))
	binary.Write(&tiff, le, uint32(0))

	// Exif IFD: DateTimeOriginal stored at offset 44.
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x9003))
	binary.Write(&tiff, le, uint16(2))
	binary.Write(&tiff, le, uint32(len(value)))
	binary.Write(&tiff, le, uint32(44))
	binary.Write(&tiff, le, uint32(0))
	tiff.Write(value)

	var seg bytes.Buffer
	seg.Write([]byte{0xFF, 0xE1})
	binary.Write(&seg, binary.BigEndian, uint16(2+6+tiff.Len()))
	seg.WriteString("Exif\x00\x00")
	seg.Write(tiff.Bytes())
	return seg.Bytes()
}

// writeJPEG writes a small JPEG to path, with an EXIF capture time when
// dateTimeOriginal is not empty.
func writeJPEG(t *testing.T, path, dateTimeOriginal string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	data := buf.Bytes()
	if dateTimeOriginal != "" {
		out := append([]byte{}, data[:2]...)
		out = append(out, exifSegment(dateTimeOriginal)...)
		data = append(out, data[2:]...)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
