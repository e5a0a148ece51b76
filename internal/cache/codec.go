package cache

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
}

// compress encodes value with zstd. EncodeAll and DecodeAll are safe for
// concurrent use.
func compress(value []byte) ([]byte, error) {
	initCodec()
	if codecErr != nil {
		return nil, fmt.Errorf("failed to initialise zstd: %w", codecErr)
	}
	return encoder.EncodeAll(value, make([]byte, 0, len(value)/2)), nil
}

func decompress(data []byte) ([]byte, error) {
	initCodec()
	if codecErr != nil {
		return nil, fmt.Errorf("failed to initialise zstd: %w", codecErr)
	}
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cache entry: %w", err)
	}
	return out, nil
}
