package extract

import (
	"encoding/binary"
	"testing"
)

// buildTIFF assembles a little-endian TIFF with the given number of
// chained IFDs, each holding one dummy entry.
func buildTIFF(pages int) []byte {
	const headerLen = 8
	const ifdLen = 2 + 12 + 4 // entry count + one entry + next pointer

	data := make([]byte, headerLen+pages*ifdLen)
	data[0], data[1] = 'I', 'I'
	binary.LittleEndian.PutUint16(data[2:4], 42)
	binary.LittleEndian.PutUint32(data[4:8], headerLen)

	for i := 0; i < pages; i++ {
		offset := headerLen + i*ifdLen
		binary.LittleEndian.PutUint16(data[offset:offset+2], 1)
		next := uint32(0)
		if i+1 < pages {
			next = uint32(headerLen + (i+1)*ifdLen)
		}
		binary.LittleEndian.PutUint32(data[offset+14:offset+18], next)
	}
	return data
}

func TestSplitTIFFPagesSinglePage(t *testing.T) {
	data := buildTIFF(1)
	pages, err := SplitTIFFPages(data)
	if err != nil {
		t.Fatalf("SplitTIFFPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if &pages[0][0] != &data[0] {
		t.Error("single-page input should be returned as-is")
	}
}

func TestSplitTIFFPagesMultiPage(t *testing.T) {
	data := buildTIFF(3)
	pages, err := SplitTIFFPages(data)
	if err != nil {
		t.Fatalf("SplitTIFFPages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	for i, page := range pages {
		if len(page) != len(data) {
			t.Errorf("page %d length = %d, want %d", i, len(page), len(data))
		}
		// Header points at this page's IFD and the chain is cut.
		ifdOffset := binary.LittleEndian.Uint32(page[4:8])
		entries := binary.LittleEndian.Uint16(page[ifdOffset : ifdOffset+2])
		nextPos := ifdOffset + 2 + uint32(entries)*12
		if next := binary.LittleEndian.Uint32(page[nextPos : nextPos+4]); next != 0 {
			t.Errorf("page %d still chains to offset %d", i, next)
		}
	}

	// Pages must reference distinct IFDs.
	seen := map[uint32]bool{}
	for _, page := range pages {
		seen[binary.LittleEndian.Uint32(page[4:8])] = true
	}
	if len(seen) != 3 {
		t.Errorf("pages share IFD offsets: %v", seen)
	}

	// The original buffer is untouched.
	if binary.LittleEndian.Uint32(data[4:8]) != 8 {
		t.Error("source data was mutated")
	}
}

func TestSplitTIFFPagesInvalid(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("short"),
		[]byte("XX\x2a\x00\x08\x00\x00\x00"),
		[]byte("II\x00\x00\x08\x00\x00\x00"), // wrong magic
	}
	for _, data := range cases {
		if _, err := SplitTIFFPages(data); err == nil {
			t.Errorf("SplitTIFFPages(%q) should error", data)
		}
	}
}
