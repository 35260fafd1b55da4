// Package artifact serialises bundles to compressed files and reads them back.
package artifact

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Encode returns the zstd-compressed bundle state.
func Encode(b *bundle.Bundle) ([]byte, error) {
	state, err := b.MarshalState()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(state, make([]byte, 0, len(state)/4)), nil
}

// Decode restores a bundle from Encode output. Uncompressed state is
// accepted as well.
func Decode(data []byte) (*bundle.Bundle, error) {
	state := data
	if bytes.HasPrefix(data, zstdMagic) {
		var err error
		state, err = decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("artifact: decompress: %w", err)
		}
	}
	b, err := bundle.UnmarshalState(state)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return b, nil
}
