package metadata

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func box(name string, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(8+len(payload)))
	copy(buf[4:8], name)
	copy(buf[8:], payload)
	return buf
}

func mvhdV0(timescale, duration uint32) []byte {
	payload := make([]byte, 4+16)
	binary.BigEndian.PutUint32(payload[12:16], timescale)
	binary.BigEndian.PutUint32(payload[16:20], duration)
	return box("mvhd", payload)
}

func TestReadMP4Duration(t *testing.T) {
	// ftyp, a filler box, then moov/mvhd with 90s at timescale 600
	file := bytes.NewReader(bytes.Join([][]byte{
		box("ftyp", []byte("isom0000")),
		box("free", make([]byte, 32)),
		box("moov", mvhdV0(600, 54000)),
	}, nil))

	d, err := ReadMP4Duration(file)
	if err != nil {
		t.Fatalf("ReadMP4Duration: %v", err)
	}
	if d != 90 {
		t.Errorf("duration = %v, want 90", d)
	}
}

func TestReadMP4DurationVersion1(t *testing.T) {
	v1 := make([]byte, 4+28)
	v1[0] = 1
	binary.BigEndian.PutUint32(v1[4+16:4+20], 1000)
	binary.BigEndian.PutUint64(v1[4+20:4+28], 12500)

	file := bytes.NewReader(bytes.Join([][]byte{
		box("ftyp", []byte("isom0000")),
		box("moov", box("mvhd", v1)),
	}, nil))

	d, err := ReadMP4Duration(file)
	if err != nil {
		t.Fatalf("ReadMP4Duration: %v", err)
	}
	if d != 12.5 {
		t.Errorf("duration = %v, want 12.5", d)
	}
}

func TestReadMP4DurationMissingMoov(t *testing.T) {
	file := bytes.NewReader(box("ftyp", []byte("isom0000")))
	if _, err := ReadMP4Duration(file); err == nil {
		t.Fatal("expected error for file without moov box")
	}
}
