package pngtext

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)
	crcBuf := append([]byte(chunkType), data...)
	binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(crcBuf))
}

func buildPNG(chunks []struct {
	typ  string
	data []byte
}) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(pngSignature)
	for _, c := range chunks {
		writeChunk(buf, c.typ, c.data)
	}
	writeChunk(buf, "IEND", nil)
	return buf.Bytes()
}

func TestReadTextChunks_RejectsNonPNG(t *testing.T) {
	_, err := ReadTextChunks(bytes.NewReader([]byte("not a png")))
	if err != ErrNotPNG {
		t.Errorf("err = %v, want ErrNotPNG", err)
	}
}

func TestReadTextChunks_ParsesTEXt(t *testing.T) {
	data := append([]byte("parameters\x00"), []byte("a beautiful landscape")...)
	png := buildPNG([]struct {
		typ  string
		data []byte
	}{{"tEXt", data}})

	chunks, err := ReadTextChunks(bytes.NewReader(png))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Key != "parameters" || chunks[0].Value != "a beautiful landscape" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestReadTextChunks_ParsesUncompressedITXt(t *testing.T) {
	// key\0 compFlag(0) compMethod(0) lang\0 translated\0 text
	data := []byte("prompt\x00\x00\x00\x00\x00hello world")
	png := buildPNG([]struct {
		typ  string
		data []byte
	}{{"iTXt", data}})

	chunks, err := ReadTextChunks(bytes.NewReader(png))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Key != "prompt" || chunks[0].Value != "hello world" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestReadTextChunks_SkipsUnknownChunks(t *testing.T) {
	png := buildPNG([]struct {
		typ  string
		data []byte
	}{
		{"pHYs", []byte{0, 0, 0, 1, 0, 0, 0, 1, 1}},
		{"tEXt", append([]byte("prompt\x00"), []byte("x")...)},
	})

	chunks, err := ReadTextChunks(bytes.NewReader(png))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Key != "prompt" {
		t.Errorf("chunks = %+v", chunks)
	}
}
