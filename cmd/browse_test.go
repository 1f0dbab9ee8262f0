// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestScanTapeDir(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "out.bin", []byte{0x80, 0x80})
	writeTestFile(t, dir, "focal.rim", []byte{0x80})
	writeTestFile(t, dir, "head.raw", []byte{0x01, 0x02, 0x03})
	writeTestFile(t, dir, "sess.cbor", []byte{0xA1})
	writeTestFile(t, dir, "notes.txt", []byte("not a tape"))
	if err := os.Mkdir(filepath.Join(dir, "archive.bin"), 0755); err != nil {
		t.Fatalf("Failed to make subdir: %v", err)
	}

	files, err := scanTapeDir(dir)
	if err != nil {
		t.Fatalf("scanTapeDir failed: %v", err)
	}

	wantNames := []string{"focal.rim", "head.raw", "out.bin", "sess.cbor"}
	if len(files) != len(wantNames) {
		t.Fatalf("Found %d files, want %d", len(files), len(wantNames))
	}
	for i, want := range wantNames {
		if files[i].name != want {
			t.Errorf("File %d = %s, want %s", i, files[i].name, want)
		}
	}
	if files[1].size != 3 {
		t.Errorf("head.raw size = %d, want 3", files[1].size)
	}
}

func TestScanTapeDir_Missing(t *testing.T) {
	if _, err := scanTapeDir("/no/such/directory"); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestDescribeTapeFile_BinImage(t *testing.T) {
	// Leader, origin 0100, one data word, matching checksum
	image := []byte{
		0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80,
		0x41, 0x00,
		0x00, 0x02,
		0x01, 0x03,
		0x80, 0x80, 0x80, 0x80, 0x80, 0x80,
	}
	dir := t.TempDir()
	path := writeTestFile(t, dir, "boot.bin", image)

	detail := describeTapeFile(tapeFile{name: "boot.bin", path: path, size: int64(len(image))})
	if !strings.Contains(detail, "Image summary") {
		t.Errorf("Detail missing summary:\n%s", detail)
	}
	if !strings.Contains(detail, "A 0100") {
		t.Errorf("Detail missing origin record:\n%s", detail)
	}
	if !strings.Contains(detail, "C 0103 OK") {
		t.Errorf("Detail missing checksum verdict:\n%s", detail)
	}
}

func TestDescribeTapeFile_ElidesLongListings(t *testing.T) {
	image := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	for i := 0; i < 25; i++ {
		image = append(image, 0x00, 0x01)
	}
	image = append(image, 0x00, 0x19) // checksum: 25 words of 0001

	dir := t.TempDir()
	path := writeTestFile(t, dir, "long.bin", image)

	detail := describeTapeFile(tapeFile{name: "long.bin", path: path, size: int64(len(image))})
	if !strings.Contains(detail, "more records") {
		t.Errorf("Long listing not elided:\n%s", detail)
	}
}

func TestDescribeTapeFile_Transcript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.cbor")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create transcript: %v", err)
	}
	recorder, err := papertape.NewRecorder(f, papertape.FormatBin, "/dev/ttyUSB0 @ 1200 baud")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if err := recorder.RecordChunk([]byte{0x80, 0x80}); err != nil {
		t.Fatalf("RecordChunk failed: %v", err)
	}
	if err := recorder.RecordChunk([]byte{0x41, 0x00}); err != nil {
		t.Fatalf("RecordChunk failed: %v", err)
	}
	if err := recorder.RecordIdle(); err != nil {
		t.Fatalf("RecordIdle failed: %v", err)
	}
	f.Close()

	detail := describeTapeFile(tapeFile{name: "sess.cbor", path: path})
	if !strings.Contains(detail, "Session transcript") {
		t.Errorf("Detail missing transcript header:\n%s", detail)
	}
	if !strings.Contains(detail, "/dev/ttyUSB0 @ 1200 baud") {
		t.Errorf("Detail missing source:\n%s", detail)
	}
	if !strings.Contains(detail, "Chunks:   3 (1 idle)") {
		t.Errorf("Detail missing chunk counts:\n%s", detail)
	}
}

func TestDescribeTapeFile_Raw(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "head.raw", []byte{0x01, 0x02})

	detail := describeTapeFile(tapeFile{name: "head.raw", path: path, size: 2})
	if !strings.Contains(detail, "raw data") {
		t.Errorf("Raw detail = %q", detail)
	}
}
