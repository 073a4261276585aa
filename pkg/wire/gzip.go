package wire

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/model"
)

// Compress gzips an encoded record for storage.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "compressing record")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "compressing record")
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. Truncated or corrupt input is a decode
// error, never silently empty data.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "corrupt gzip stream")
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "truncated gzip stream")
	}
	return out, nil
}

// EncodeCompressed encodes the record and gzips the result, producing the
// exact bytes the index store persists.
func EncodeCompressed(r model.Record) ([]byte, error) {
	data, err := Encode(r)
	if err != nil {
		return nil, err
	}
	return Compress(data)
}

// DecodeCompressed reverses EncodeCompressed.
func DecodeCompressed(blob []byte) (model.Record, error) {
	data, err := Decompress(blob)
	if err != nil {
		return model.Record{}, err
	}
	return Decode(data)
}
