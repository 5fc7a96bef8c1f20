// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package romfile reads program images from disk.
//
// [Load] accepts raw images and images compressed with zstd (".zst")
// or LZ4 frames (".lz4"). The console type comes from the extension
// underneath any compression suffix ("game.sfc.zst" is a SNES image)
// and, failing that, from the iNES header magic. Every image carries a
// BLAKE3 digest of its uncompressed bytes so operators can tell which
// build of a program is loaded.
package romfile
