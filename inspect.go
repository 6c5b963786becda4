package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ImageInfo describes one directory entry of an inspected ICO container.
type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BitCount int    `json:"bit_count"`
	Size     uint32 `json:"size"`
	Offset   uint32 `json:"offset"`
	PNG      bool   `json:"png"`
}

// Report summarizes an inspected ICO container.
type Report struct {
	Count  int         `json:"count"`
	Images []ImageInfo `json:"images"`
}

// Inspect parses an ICO byte stream and reports its directory. Payloads are
// not decoded; each is only probed for the PNG signature.
func Inspect(r io.Reader) (*Report, error) {

	body, err := io.ReadAll(r)

	if err != nil {
		return nil, fmt.Errorf("Failed to read container, %w", err)
	}

	if len(body) < icoHeaderSize {
		return nil, fmt.Errorf("Container too short for header")
	}

	reserved := binary.LittleEndian.Uint16(body[0:2])
	image_type := binary.LittleEndian.Uint16(body[2:4])
	count := int(binary.LittleEndian.Uint16(body[4:6]))

	if reserved != 0 {
		return nil, fmt.Errorf("Invalid container, reserved field is %d", reserved)
	}

	if image_type != 1 {
		return nil, fmt.Errorf("Invalid container, image type is %d", image_type)
	}

	if len(body) < icoHeaderSize+icoDirEntrySize*count {
		return nil, fmt.Errorf("Container too short for %d directory entries", count)
	}

	report := &Report{
		Count:  count,
		Images: make([]ImageInfo, 0, count),
	}

	for i := 0; i < count; i++ {

		entry := body[icoHeaderSize+i*icoDirEntrySize:]

		info := ImageInfo{
			Width:    actualDimension(entry[0]),
			Height:   actualDimension(entry[1]),
			BitCount: int(binary.LittleEndian.Uint16(entry[6:8])),
			Size:     binary.LittleEndian.Uint32(entry[8:12]),
			Offset:   binary.LittleEndian.Uint32(entry[12:16]),
		}

		if int(info.Offset)+int(info.Size) > len(body) {
			return nil, fmt.Errorf("Image %d payload extends past end of container", i)
		}

		payload := body[info.Offset : info.Offset+info.Size]
		info.PNG = bytes.HasPrefix(payload, pngMagic)

		report.Images = append(report.Images, info)
	}

	return report, nil
}

// InspectFile parses the ICO container at path.
func InspectFile(path string) (*Report, error) {

	r, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s for reading, %w", path, err)
	}

	defer r.Close()

	return Inspect(r)
}

// actualDimension expands the directory's byte-sized dimension field, where
// 0 means 256.
func actualDimension(b uint8) int {

	if b == 0 {
		return 256
	}

	return int(b)
}
