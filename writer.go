package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// Entry is a single image to be stored in an ICO container: PNG-encoded
// bytes plus the dimensions declared in the icon directory.
type Entry struct {
	Data   []byte
	Width  int
	Height int
}

type icoHeader struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoDirEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	Size       uint32
	Offset     uint32
}

const icoHeaderSize int = 6
const icoDirEntrySize int = 16

// WriteIco serializes entries as a single ICO byte stream. Entries are
// ordered by ascending declared width (ties keep input order) before the
// directory is written; some consumers rely on this ordering when picking a
// default image. Dimensions of 256 or more are stored as the byte value 0,
// the format's sentinel for 256.
func WriteIco(wr io.Writer, entries []Entry) error {

	count := len(entries)

	if count == 0 {
		return fmt.Errorf("Nothing to write")
	}

	sorted := make([]Entry, count)
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i int, j int) bool {
		return sorted[i].Width < sorted[j].Width
	})

	header := icoHeader{
		Reserved: 0,
		Type:     1,
		Count:    uint16(count),
	}

	var buf bytes.Buffer

	err := binary.Write(&buf, binary.LittleEndian, header)

	if err != nil {
		return fmt.Errorf("Failed to write header, %w", err)
	}

	offset := uint32(icoHeaderSize + icoDirEntrySize*count)

	for _, e := range sorted {

		dir := icoDirEntry{
			Width:      clampDimension(e.Width),
			Height:     clampDimension(e.Height),
			ColorCount: 0,
			Reserved:   0,
			Planes:     1,
			BitCount:   32,
			Size:       uint32(len(e.Data)),
			Offset:     offset,
		}

		err := binary.Write(&buf, binary.LittleEndian, dir)

		if err != nil {
			return fmt.Errorf("Failed to write directory entry, %w", err)
		}

		offset += dir.Size
	}

	for _, e := range sorted {

		_, err := buf.Write(e.Data)

		if err != nil {
			return fmt.Errorf("Failed to write image payload, %w", err)
		}
	}

	_, err = wr.Write(buf.Bytes())

	if err != nil {
		return fmt.Errorf("Failed to write container, %w", err)
	}

	return nil
}

// WriteIcoFile writes entries to an ICO file at path.
func WriteIcoFile(path string, entries []Entry) error {

	wr, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)

	if err != nil {
		return fmt.Errorf("Failed to open %s for writing, %w", path, err)
	}

	err = WriteIco(wr, entries)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to write %s, %w", path, err)
	}

	err = wr.Close()

	if err != nil {
		return fmt.Errorf("Failed to close %s after writing, %w", path, err)
	}

	return nil
}

func clampDimension(d int) uint8 {

	if d >= 256 {
		return 0
	}

	return uint8(d)
}
