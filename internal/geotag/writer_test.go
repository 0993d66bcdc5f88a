package geotag

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/barasher/go-exiftool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electronjoe/geotag/internal/location"
)

func TestHemispheres(t *testing.T) {
	cases := []struct {
		lat, lon       float64
		latRef, lonRef string
	}{
		{10, 20, "N", "E"},
		{-33.8, 151.2, "S", "E"},
		{40.7, -74.0, "N", "W"},
		{-22.9, -43.2, "S", "W"},
		{0, 0, "N", "E"},
	}
	for _, c := range cases {
		latRef, lonRef := Hemispheres(c.lat, c.lon)
		assert.Equal(t, c.latRef, latRef)
		assert.Equal(t, c.lonRef, lonRef)
	}
}

func TestSetGPS_UnsignedMagnitudes(t *testing.T) {
	fm := exiftool.EmptyFileMetadata()
	setGPS(&fm, location.Sample{Latitude: -33.5, Longitude: -70.25})

	lat, err := fm.GetFloat("GPSLatitude")
	require.NoError(t, err)
	assert.Equal(t, 33.5, lat)
	lon, err := fm.GetFloat("GPSLongitude")
	require.NoError(t, err)
	assert.Equal(t, 70.25, lon)

	ref, err := fm.GetString("GPSLatitudeRef")
	require.NoError(t, err)
	assert.Equal(t, "S", ref)
	ref, err = fm.GetString("GPSLongitudeRef")
	require.NoError(t, err)
	assert.Equal(t, "W", ref)

	_, ok := fm.Fields["GPSAltitude"]
	assert.False(t, ok, "altitude written without a source value")
}

func TestSetGPS_Altitude(t *testing.T) {
	fm := exiftool.EmptyFileMetadata()
	setGPS(&fm, location.Sample{Latitude: 1, Longitude: 1, Altitude: -12.5, HasAltitude: true})

	alt, err := fm.GetFloat("GPSAltitude")
	require.NoError(t, err)
	assert.Equal(t, 12.5, alt)
	ref, err := fm.GetString("GPSAltitudeRef")
	require.NoError(t, err)
	assert.Equal(t, "Below Sea Level", ref)
}

func TestReadGPS_NoExif(t *testing.T) {
	path := writePlainJPEG(t)

	_, ok, err := ReadGPS(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadGPS_MissingFile(t *testing.T) {
	_, _, err := ReadGPS(filepath.Join(t.TempDir(), "gone.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writePlainJPEG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))
	path := filepath.Join(t.TempDir(), "plain.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// EnvTestExiftool points the exiftool-backed tests at a specific binary.
const EnvTestExiftool = "GEOTAG_TEST_EXIFTOOL"

// exiftoolBinary returns the exiftool to test against, skipping the test when
// none is available.
func exiftoolBinary(t *testing.T) string {
	t.Helper()
	if bin := os.Getenv(EnvTestExiftool); bin != "" {
		return bin
	}
	bin, err := exec.LookPath("exiftool")
	if err != nil {
		t.Skip("exiftool not found in PATH; set " + EnvTestExiftool + " to run")
	}
	return bin
}

// tagArtist gives the photo some unrelated metadata that must survive GPS writes.
func tagArtist(t *testing.T, w *ExifWriter, path string) {
	t.Helper()
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString("DateTimeOriginal", "2023:05:01 10:00:00")
	fm.SetString("Artist", "tester")
	batch := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(batch)
	require.NoError(t, batch[0].Err)
}

func TestWriteGPS_RoundTrip(t *testing.T) {
	bin := exiftoolBinary(t)
	path := writePlainJPEG(t)

	w, err := NewExifWriter(bin, false)
	require.NoError(t, err)
	defer w.Close()

	tagArtist(t, w, path)

	cases := []location.Sample{
		{Latitude: 51.563667, Longitude: -0.704, Altitude: 45, HasAltitude: true},
		{Latitude: -33.8688, Longitude: 151.2093},
	}
	for _, s := range cases {
		require.NoError(t, w.WriteGPS(path, s))

		pos, ok, err := ReadGPS(path)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, s.Latitude, pos.Latitude, 1e-5)
		assert.InDelta(t, s.Longitude, pos.Longitude, 1e-5)
	}

	got := w.et.ExtractMetadata(path)
	require.Len(t, got, 1)
	require.NoError(t, got[0].Err)
	artist, err := got[0].GetString("Artist")
	require.NoError(t, err)
	assert.Equal(t, "tester", artist)

	_, err = os.Stat(path + BackupSuffix)
	assert.ErrorIs(t, err, os.ErrNotExist, "exiftool left a backup behind")
}

func TestWriteGPS_KeepsOriginal(t *testing.T) {
	bin := exiftoolBinary(t)
	path := writePlainJPEG(t)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	w, err := NewExifWriter(bin, true)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteGPS(path, location.Sample{Latitude: 10, Longitude: 20}))
	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	// a second run must not replace the first backup with tagged data
	require.NoError(t, w.WriteGPS(path, location.Sample{Latitude: 11, Longitude: 21}))
	backup, err = os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	pos, ok, err := ReadGPS(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 11.0, pos.Latitude, 1e-5)
}

func TestWriteGPS_Unwritable(t *testing.T) {
	bin := exiftoolBinary(t)

	w, err := NewExifWriter(bin, false)
	require.NoError(t, err)
	defer w.Close()

	err = w.WriteGPS(filepath.Join(t.TempDir(), "missing.jpg"), location.Sample{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, ErrWrite)
}

func TestNewExifWriter_MissingBinary(t *testing.T) {
	_, err := NewExifWriter(filepath.Join(t.TempDir(), "no-exiftool"), false)
	assert.Error(t, err)
}
