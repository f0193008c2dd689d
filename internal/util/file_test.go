package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateMimeType(t *testing.T) {
	text := []byte("这是一份纯文本讲义。\nplain text lecture notes.")
	mimeType, err := ValidateMimeType(bytes.NewReader(text), []string{"text/"})
	if err != nil {
		t.Fatalf("ValidateMimeType: %v", err)
	}
	if len(mimeType) < 5 || mimeType[:5] != "text/" {
		t.Fatalf("mimeType = %q", mimeType)
	}

	// PNG 魔数不应通过纯文本白名单
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if _, err := ValidateMimeType(bytes.NewReader(png), []string{"text/"}); err == nil {
		t.Fatal("expected rejection for png payload")
	}
}

func TestIsVideo(t *testing.T) {
	if !IsVideo("video/mp4") {
		t.Fatal("video/mp4 should be video")
	}
	if !IsVideo("application/x-mpegURL") {
		t.Fatal("HLS playlist should be video")
	}
	if IsVideo("text/plain") {
		t.Fatal("text/plain is not video")
	}
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	data := []byte("identical content")
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromFile != HashBytes(data) {
		t.Fatalf("hash mismatch: %s vs %s", fromFile, HashBytes(data))
	}
	if len(fromFile) != 64 {
		t.Fatalf("hash length = %d, want 64", len(fromFile))
	}
}
