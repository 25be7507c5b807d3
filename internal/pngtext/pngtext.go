// Package pngtext reads tEXt and iTXt ancillary chunks out of a PNG file.
// It stops at IEND and ignores every other chunk type; no pack repo
// exposes raw PNG ancillary-chunk access, so this is a minimal hand-rolled
// reader scoped to exactly what the GeneratorInfo layer needs.
package pngtext

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/zlib"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ErrNotPNG is returned when the file does not start with the PNG
// signature.
var ErrNotPNG = errors.New("pngtext: not a PNG file")

// TextChunk is a single key/value pair extracted from a tEXt or iTXt
// chunk, in file order.
type TextChunk struct {
	Key   string
	Value string
}

// ReadTextChunks reads every tEXt/iTXt chunk from r, decompressing
// compressed iTXt payloads, until IEND or EOF.
func ReadTextChunks(r io.Reader) ([]TextChunk, error) {
	sig := make([]byte, 8)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, ErrNotPNG
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, ErrNotPNG
	}

	var out []TextChunk
	for {
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			break
		}
		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, typeBuf); err != nil {
			break
		}
		chunkType := string(typeBuf)

		switch chunkType {
		case "tEXt":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return out, err
			}
			if tc, ok := parseTEXt(data); ok {
				out = append(out, tc)
			}
		case "iTXt":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return out, err
			}
			if tc, ok := parseITXt(data); ok {
				out = append(out, tc)
			}
		case "IEND":
			skip(r, 4) // CRC
			return out, nil
		default:
			skip(r, int64(length))
		}
		skip(r, 4) // CRC
	}
	return out, nil
}

func skip(r io.Reader, n int64) {
	io.CopyN(ioutil.Discard, r, n)
}

func parseTEXt(data []byte) (TextChunk, bool) {
	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx < 0 {
		return TextChunk{}, false
	}
	key := string(data[:nullIdx])
	val := string(data[nullIdx+1:])
	return TextChunk{Key: key, Value: val}, true
}

func parseITXt(data []byte) (TextChunk, bool) {
	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx < 0 {
		return TextChunk{}, false
	}
	key := string(data[:nullIdx])
	rest := data[nullIdx+1:]
	if len(rest) < 2 {
		return TextChunk{}, false
	}
	compFlag := rest[0]
	after := rest[2:] // skip compression flag + method byte

	nulls := 0
	pos := 0
	for i, b := range after {
		if b == 0 {
			nulls++
			if nulls >= 2 {
				pos = i + 1
				break
			}
		}
	}
	textData := after[pos:]

	var val string
	if compFlag == 1 {
		val = decompressZlib(textData)
	} else {
		val = string(textData)
	}
	return TextChunk{Key: key, Value: val}, true
}

func decompressZlib(data []byte) string {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return ""
	}
	return string(out)
}
