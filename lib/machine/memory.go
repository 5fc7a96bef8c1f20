// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package machine

const pageBits = 12

const pageSize = 1 << pageBits

// Memory is a sparse byte-addressed space. Pages are allocated on
// first write; unwritten addresses read as zero.
type Memory struct {
	mask  uint32
	pages map[uint32]*[pageSize]byte
}

// NewMemory returns an empty space whose addresses are masked with
// mask.
func NewMemory(mask uint32) *Memory {
	return &Memory{mask: mask, pages: make(map[uint32]*[pageSize]byte)}
}

// Read returns the byte at address.
func (m *Memory) Read(address uint32) uint8 {
	address &= m.mask
	page, ok := m.pages[address>>pageBits]
	if !ok {
		return 0
	}
	return page[address&(pageSize-1)]
}

// ReadInto fills out starting at start. Addresses wrap at the mask.
func (m *Memory) ReadInto(start uint32, out []byte) {
	for i := range out {
		out[i] = m.Read(start + uint32(i))
	}
}

// Write stores value at address.
func (m *Memory) Write(address uint32, value uint8) {
	address &= m.mask
	index := address >> pageBits
	page, ok := m.pages[index]
	if !ok {
		if value == 0 {
			return
		}
		page = new([pageSize]byte)
		m.pages[index] = page
	}
	page[address&(pageSize-1)] = value
}

// Map copies data into the space starting at base. Bytes that would
// wrap past the top of the space are dropped. Returns the number of
// bytes mapped.
func (m *Memory) Map(base uint32, data []byte) int {
	base &= m.mask
	room := uint64(m.mask) - uint64(base) + 1
	if uint64(len(data)) > room {
		data = data[:room]
	}
	for i, value := range data {
		m.Write(base+uint32(i), value)
	}
	return len(data)
}

// Pages returns the number of allocated pages.
func (m *Memory) Pages() int {
	return len(m.pages)
}
