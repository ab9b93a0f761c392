package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrInvalidDataURL = errors.New("invalid base64 data url")

// RawFile is a document selected by the applicant but not yet encoded.
type RawFile interface {
	Name() string
	Type() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type memoryFile struct {
	name, mimeType string
	data           []byte
}

func (f memoryFile) Name() string { return f.name }
func (f memoryFile) Type() string { return f.mimeType }
func (f memoryFile) Size() int64  { return int64(len(f.data)) }
func (f memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// NewMemoryFile wraps bytes already held in memory.
func NewMemoryFile(name, mimeType string, data []byte) RawFile {
	return memoryFile{name: name, mimeType: mimeType, data: data}
}

// NewDataURLFile decodes a browser-produced "data:<mime>;base64,<content>"
// string (or bare base64). The MIME type in the prefix is used when mimeType
// is empty.
func NewDataURLFile(name, mimeType, content string) (RawFile, error) {
	if mimeType == "" {
		mimeType = dataURLMimeType(content)
	}
	data, err := base64.StdEncoding.DecodeString(StripDataURLPrefix(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return NewMemoryFile(name, mimeType, data), nil
}

// StripDataURLPrefix returns the base64 payload of a data URL, or s unchanged
// when it carries no data URL scheme.
func StripDataURLPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, payload, ok := strings.Cut(s, ","); ok {
		return payload
	}
	return s
}

func dataURLMimeType(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return ""
	}
	meta, _, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return ""
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	return mediaType
}

// EncodeBase64 streams r into standard base64 text.
func EncodeBase64(r io.Reader) (string, error) {
	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, r); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DetectMimeType keeps declared unless it is empty or the generic binary
// type, in which case the type is sniffed from head.
func DetectMimeType(declared string, head []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(head).String()
}

const sniffLen = 3072

// readAndEncode reads the whole file, sniffs its type and returns the
// encoded content with the resolved MIME type.
func readAndEncode(file RawFile) (encoded, mimeType string, err error) {
	rc, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("open %s: %w", file.Name(), err)
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read %s: %w", file.Name(), err)
	}
	head = head[:n]

	encoded, err = EncodeBase64(io.MultiReader(bytes.NewReader(head), rc))
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", file.Name(), err)
	}
	return encoded, DetectMimeType(file.Type(), head), nil
}
