package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBase64RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0xff, 0x10, 'a'}, 4097)

	encoded, err := EncodeBase64(bytes.NewReader(data))
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestStripDataURLPrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "data:application/pdf;base64,JVBERi0=", want: "JVBERi0="},
		{in: "data:;base64,YWJj", want: "YWJj"},
		{in: "YWJj", want: "YWJj"},
		{in: "data:text/plain", want: "data:text/plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripDataURLPrefix(tt.in), tt.in)
	}
}

func TestNewDataURLFile(t *testing.T) {
	f, err := NewDataURLFile("notes.txt", "", "data:text/plain;base64,"+base64.StdEncoding.EncodeToString([]byte("hello")))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", f.Name())
	assert.Equal(t, "text/plain", f.Type())
	assert.EqualValues(t, 5, f.Size())

	_, err = NewDataURLFile("bad.bin", "", "data:text/plain;base64,@@@")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestDetectMimeType(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	assert.Equal(t, "application/pdf", DetectMimeType("", pdf))
	assert.Equal(t, "application/pdf", DetectMimeType("application/octet-stream", pdf))
	assert.Equal(t, "image/png", DetectMimeType("image/png", pdf))
}

type failingFile struct{ openErr, readErr error }

func (f failingFile) Name() string { return "broken.pdf" }
func (f failingFile) Type() string { return "application/pdf" }
func (f failingFile) Size() int64  { return 10 }
func (f failingFile) Open() (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(io.MultiReader(strings.NewReader("abc"), errReader{f.readErr})), nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadAndEncodeFailures(t *testing.T) {
	boom := errors.New("disk gone")

	_, _, err := readAndEncode(failingFile{openErr: boom})
	assert.ErrorIs(t, err, boom)

	_, _, err = readAndEncode(failingFile{readErr: boom})
	assert.ErrorIs(t, err, boom)
}
