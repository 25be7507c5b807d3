package jobs

import (
	"crypto/sha512"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/shirk33y/lv/internal/genmeta"
	"github.com/shirk33y/lv/internal/store"
)

func processLayer(db *store.Store, fileID int64, layer store.Layer, path string) error {
	switch layer {
	case store.LayerHash:
		return processHash(db, fileID, path)
	case store.LayerDimensions:
		return processDimensions(db, fileID, path)
	case store.LayerGeneratorInfo:
		return processGeneratorInfo(db, fileID, path)
	default:
		return fmt.Errorf("jobs: unknown layer %q", layer)
	}
}

// fastHashThreshold and fingerprintChunk mirror jobs.rs: full SHA-512 for
// small files, a head+tail+size fingerprint for anything bigger so a
// multi-gigabyte video doesn't stall a worker for minutes.
const (
	fastHashThreshold = 2 * 1024 * 1024
	fingerprintChunk  = 64 * 1024
	xattrName         = "user.lv.sha512"
)

func processHash(db *store.Store, fileID int64, path string) error {
	if h, ok := xattrGet(path); ok {
		db.LinkFileToHash(fileID, h)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	var hash string
	if size > fastHashThreshold {
		hash, err = fingerprintHash(f, size)
	} else {
		hash, err = fullHash(f)
	}
	if err != nil {
		return err
	}

	xattrSet(path, hash)
	db.LinkFileToHash(fileID, hash)
	if size > fastHashThreshold {
		slogDebugHashed(path, size)
	}
	return nil
}

func fullHash(f *os.File) (string, error) {
	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func fingerprintHash(f *os.File, size int64) (string, error) {
	h := sha512.New()

	headLen := fingerprintChunk
	if int64(headLen) > size {
		headLen = int(size)
	}
	head := make([]byte, headLen)
	if _, err := io.ReadFull(f, head); err != nil {
		return "", err
	}
	h.Write(head)

	if size > int64(fingerprintChunk)*2 {
		if _, err := f.Seek(-int64(fingerprintChunk), io.SeekEnd); err != nil {
			return "", err
		}
		tail := make([]byte, fingerprintChunk)
		if _, err := io.ReadFull(f, tail); err != nil {
			return "", err
		}
		h.Write(tail)
	}

	sizeBuf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		sizeBuf[i] = byte(size >> (8 * i))
	}
	h.Write(sizeBuf)

	return "fp:" + fmt.Sprintf("%x", h.Sum(nil)), nil
}

func xattrGet(path string) (string, bool) {
	size, err := unix.Getxattr(path, xattrName, nil)
	if err != nil || size <= 0 {
		return "", false
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, xattrName, buf)
	if err != nil {
		return "", false
	}
	return string(buf[:n]), true
}

func xattrSet(path, hash string) {
	_ = unix.Setxattr(path, xattrName, []byte(hash), 0)
}

func slogDebugHashed(path string, size int64) {
	slog.Debug("jobs: fingerprint-hashed large file", "path", path, "size", humanize.Bytes(uint64(size)))
}

func processDimensions(db *store.Store, fileID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return err
	}

	ext := strings.ToLower(extOf(path))
	format := "Unknown"
	switch ext {
	case "jpg", "jpeg":
		format = "JPEG"
	case "png":
		format = "PNG"
	case "webp":
		format = "WebP"
	case "gif":
		format = "GIF"
	case "bmp":
		format = "BMP"
	case "tiff", "tif":
		format = "TIFF"
	}

	db.SetDimensions(fileID, int64(cfg.Width), int64(cfg.Height), format)
	return nil
}

func processGeneratorInfo(db *store.Store, fileID int64, path string) error {
	result, err := genmeta.ExtractFile(path)
	if err != nil {
		return err
	}
	combined := result.Combined()
	if combined == "" {
		return fmt.Errorf("jobs: no AI metadata")
	}
	db.SetGeneratorInfo(fileID, combined)
	return nil
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}
