package extract

import (
	"encoding/binary"
	"fmt"
)

// SplitTIFFPages splits a multi-page TIFF into standalone single-page
// files. Each page keeps the full original byte range (so all strip and
// tile offsets stay valid) but the header points at that page's IFD and
// the IFD's next pointer is zeroed. Single-page files are returned as-is.
func SplitTIFFPages(data []byte) ([][]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tiff too short")
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("tiff byte order marker missing")
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("tiff magic number missing")
	}

	// Walk the IFD chain collecting (ifdOffset, nextPointerOffset) pairs.
	type ifdRef struct {
		offset  uint32
		nextPos uint32
	}
	var ifds []ifdRef
	offset := order.Uint32(data[4:8])
	for offset != 0 {
		if int(offset)+2 > len(data) {
			return nil, fmt.Errorf("ifd offset %d out of range", offset)
		}
		entries := order.Uint16(data[offset : offset+2])
		nextPos := offset + 2 + uint32(entries)*12
		if int(nextPos)+4 > len(data) {
			return nil, fmt.Errorf("ifd at %d truncated", offset)
		}
		ifds = append(ifds, ifdRef{offset: offset, nextPos: nextPos})
		offset = order.Uint32(data[nextPos : nextPos+4])
		if len(ifds) > 1024 {
			return nil, fmt.Errorf("ifd chain too long or cyclic")
		}
	}

	if len(ifds) == 0 {
		return nil, fmt.Errorf("tiff has no pages")
	}
	if len(ifds) == 1 {
		return [][]byte{data}, nil
	}

	pages := make([][]byte, 0, len(ifds))
	for _, ifd := range ifds {
		page := make([]byte, len(data))
		copy(page, data)
		order.PutUint32(page[4:8], ifd.offset)
		order.PutUint32(page[ifd.nextPos:ifd.nextPos+4], 0)
		pages = append(pages, page)
	}
	return pages, nil
}
