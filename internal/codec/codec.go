// Package codec compresses snapshot content and metadata for storage.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

// ErrUnknownEncoding is returned for payloads tagged with an unsupported encoding.
var ErrUnknownEncoding = errors.New("unknown payload encoding")

// Compress gzips data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Decode decompresses data according to its encoding tag. An empty tag is a
// legacy row stored as raw bytes.
func Decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case domain.EncodingGzip:
		return Decompress(data)
	case domain.EncodingIdentity, "":
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// Encode compresses content and JSON-encoded metadata. A nil metadata map
// is stored as absent.
func Encode(content string, metadata map[string]interface{}) (domain.EncodedPayload, error) {
	var out domain.EncodedPayload

	compressed, err := Compress([]byte(content))
	if err != nil {
		return out, fmt.Errorf("compress content: %w", err)
	}
	out.ContentCompressed = compressed
	out.ContentEncoding = domain.EncodingGzip
	out.ContentSize = len(content)
	out.ContentCompressedSize = len(compressed)

	if metadata == nil {
		return out, nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return out, fmt.Errorf("marshal metadata: %w", err)
	}
	compressed, err = Compress(raw)
	if err != nil {
		return out, fmt.Errorf("compress metadata: %w", err)
	}
	out.MetadataCompressed = compressed
	out.MetadataEncoding = domain.EncodingGzip
	out.MetadataSize = len(raw)
	out.MetadataCompressedSize = len(compressed)
	return out, nil
}

// Decoded is the result of decoding a stored payload. Each field fails
// independently; ContentErr and MetadataErr record what went wrong.
type Decoded struct {
	Content     string
	Metadata    map[string]interface{}
	ContentErr  error
	MetadataErr error
}

// DecodePayload decodes content and metadata independently. A content
// failure yields empty content and a metadata failure yields nil metadata.
func DecodePayload(p domain.EncodedPayload) Decoded {
	var d Decoded

	if content, err := Decode(p.ContentCompressed, p.ContentEncoding); err != nil {
		d.ContentErr = err
	} else {
		d.Content = string(content)
	}

	if len(p.MetadataCompressed) == 0 {
		return d
	}

	raw, err := Decode(p.MetadataCompressed, p.MetadataEncoding)
	if err != nil {
		d.MetadataErr = err
		return d
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		d.MetadataErr = fmt.Errorf("unmarshal metadata: %w", err)
		return d
	}
	d.Metadata = metadata
	return d
}
