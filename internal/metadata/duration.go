package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadMP4Duration walks the box tree of an ISO BMFF file to the movie
// header (moov/mvhd) and returns the presentation duration in seconds.
func ReadMP4Duration(r io.ReadSeeker) (float64, error) {
	moovSize, err := seekToBox(r, "moov", -1)
	if err != nil {
		return 0, err
	}
	if _, err := seekToBox(r, "mvhd", moovSize); err != nil {
		return 0, err
	}
	return parseMVHD(r)
}

// seekToBox scans sibling boxes until it finds the named one, leaving the
// reader positioned just past its header. limit caps the scan to the
// enclosing box's payload; -1 scans to EOF.
func seekToBox(r io.ReadSeeker, name string, limit int64) (int64, error) {
	var consumed int64
	header := make([]byte, 8)

	for limit < 0 || consumed < limit {
		if _, err := io.ReadFull(r, header); err != nil {
			return 0, fmt.Errorf("box %q not found: %w", name, err)
		}

		size := int64(binary.BigEndian.Uint32(header[:4]))
		headerLen := int64(8)
		if size == 1 {
			// 64-bit largesize follows the type
			large := make([]byte, 8)
			if _, err := io.ReadFull(r, large); err != nil {
				return 0, err
			}
			size = int64(binary.BigEndian.Uint64(large))
			headerLen = 16
		} else if size == 0 {
			// box extends to EOF; only valid for the last top-level box
			size = limit - consumed
			if limit < 0 {
				size = 1 << 62
			}
		}
		if size < headerLen {
			return 0, fmt.Errorf("corrupt box header (size %d)", size)
		}

		if string(header[4:8]) == name {
			return size - headerLen, nil
		}

		if _, err := r.Seek(size-headerLen, io.SeekCurrent); err != nil {
			return 0, err
		}
		consumed += size
	}
	return 0, fmt.Errorf("box %q not found", name)
}

func parseMVHD(r io.Reader) (float64, error) {
	versionFlags := make([]byte, 4)
	if _, err := io.ReadFull(r, versionFlags); err != nil {
		return 0, err
	}

	var timescale uint32
	var duration uint64

	switch versionFlags[0] {
	case 0:
		buf := make([]byte, 16) // creation, modification, timescale, duration
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[8:12])
		duration = uint64(binary.BigEndian.Uint32(buf[12:16]))
	case 1:
		buf := make([]byte, 28) // 64-bit creation/modification/duration
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[16:20])
		duration = binary.BigEndian.Uint64(buf[20:28])
	default:
		return 0, fmt.Errorf("unknown mvhd version %d", versionFlags[0])
	}

	if timescale == 0 {
		return 0, fmt.Errorf("mvhd timescale is zero")
	}
	return float64(duration) / float64(timescale), nil
}
