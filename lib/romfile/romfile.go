// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfile

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/tickwire/lib/emulator"
)

// MaxSize is the largest uncompressed image Load accepts.
const MaxSize = 64 << 20

var (
	// ErrEmpty is returned for a file with no content.
	ErrEmpty = errors.New("empty ROM image")

	// ErrTooLarge is returned for an image over MaxSize.
	ErrTooLarge = errors.New("ROM image too large")

	// ErrUnknownFormat is returned when the console type cannot be
	// determined.
	ErrUnknownFormat = errors.New("unknown ROM format")
)

// Compression identifies how an image was stored on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// Digest is the BLAKE3-256 hash of an uncompressed image.
type Digest [32]byte

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough to tell builds
// apart in logs.
func (d Digest) Short() string {
	return d.String()[:12]
}

// Image is a loaded program image.
type Image struct {
	Path        string
	Data        []byte
	Console     emulator.ConsoleType
	Compression Compression
	Digest      Digest
}

var consoleByExtension = map[string]emulator.ConsoleType{
	".nes": emulator.ConsoleNes,
	".fds": emulator.ConsoleNes,
	".unf": emulator.ConsoleNes,
	".sfc": emulator.ConsoleSnes,
	".smc": emulator.ConsoleSnes,
	".fig": emulator.ConsoleSnes,
	".swc": emulator.ConsoleSnes,
	".gb":  emulator.ConsoleGameboy,
	".gbc": emulator.ConsoleGameboy,
	".pce": emulator.ConsolePcEngine,
	".sgx": emulator.ConsolePcEngine,
	".sms": emulator.ConsoleSms,
	".gg":  emulator.ConsoleSms,
	".sg":  emulator.ConsoleSms,
	".gba": emulator.ConsoleGba,
	".ws":  emulator.ConsoleWs,
	".wsc": emulator.ConsoleWs,
}

var inesMagic = []byte{'N', 'E', 'S', 0x1A}

// Load reads, decompresses and identifies the image at path.
func Load(path string) (*Image, error) {
	return load(path, MaxSize)
}

func load(path string, limit int64) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ROM: %w", err)
	}
	defer file.Close()

	name := strings.ToLower(filepath.Base(path))
	compression := CompressionNone
	var reader io.Reader = file

	switch {
	case strings.HasSuffix(name, ".zst"):
		compression = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
		decoder, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer decoder.Close()
		reader = decoder
	case strings.HasSuffix(name, ".lz4"):
		compression = CompressionLZ4
		name = strings.TrimSuffix(name, ".lz4")
		reader = lz4.NewReader(file)
	}

	// One byte past the limit tells "exactly at the limit" apart from
	// "over it".
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading ROM %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", path, ErrTooLarge, limit)
	}

	console, err := identify(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Image{
		Path:        path,
		Data:        data,
		Console:     console,
		Compression: compression,
		Digest:      Digest(blake3.Sum256(data)),
	}, nil
}

// identify returns the console type for an image whose lowercased
// file name, without compression suffix, is name.
func identify(name string, data []byte) (emulator.ConsoleType, error) {
	if console, ok := consoleByExtension[filepath.Ext(name)]; ok {
		return console, nil
	}
	if bytes.HasPrefix(data, inesMagic) {
		return emulator.ConsoleNes, nil
	}
	return emulator.ConsoleNone, ErrUnknownFormat
}
