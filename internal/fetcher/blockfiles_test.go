package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingindex/pkg/block"
)

var testMagic = [4]byte{0xf9, 0xbe, 0xb4, 0xd9}

func writeBlockFile(t *testing.T, dir, name string, blocks []*block.Block) string {
	t.Helper()
	var buf []byte
	for _, b := range blocks {
		buf = append(buf, EncodeBlockFileRecord(testMagic, b.Bytes())...)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestBlockFiles_Stream(t *testing.T) {
	dir := t.TempDir()
	blocks := []*block.Block{fixtureBlock(0, 1), fixtureBlock(1, 2), fixtureBlock(2, 3)}
	writeBlockFile(t, dir, "blk00000.dat", blocks)

	bf, err := NewBlockFiles(dir, testMagic, 2)
	if err != nil {
		t.Fatalf("NewBlockFiles() error: %v", err)
	}
	t.Cleanup(func() { bf.Close() })

	out, errc := bf.Stream(context.Background(), 0, 2)
	var got []BlockEntry
	for entry := range out {
		got = append(got, entry)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for i, entry := range got {
		if entry.Height != uint64(i) {
			t.Errorf("entry[%d].Height = %d, want %d", i, entry.Height, i)
		}
		if entry.BlockHash != blocks[i].Hash() {
			t.Errorf("entry[%d].BlockHash mismatch", i)
		}
	}
}

func TestBlockFiles_Stream_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeBlockFile(t, dir, "blk00000.dat", []*block.Block{fixtureBlock(0, 1), fixtureBlock(1, 2)})
	writeBlockFile(t, dir, "blk00001.dat", []*block.Block{fixtureBlock(2, 3)})

	bf, err := NewBlockFiles(dir, testMagic, 1)
	if err != nil {
		t.Fatalf("NewBlockFiles() error: %v", err)
	}
	t.Cleanup(func() { bf.Close() })

	out, errc := bf.Stream(context.Background(), 0, 2)
	count := 0
	for range out {
		count++
	}
	if err := <-errc; err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d entries across files, want 3", count)
	}
}

func TestBlockFiles_Stream_HeightBeyondRange(t *testing.T) {
	dir := t.TempDir()
	writeBlockFile(t, dir, "blk00000.dat", []*block.Block{fixtureBlock(0, 1)})

	bf, err := NewBlockFiles(dir, testMagic, 1)
	if err != nil {
		t.Fatalf("NewBlockFiles() error: %v", err)
	}
	t.Cleanup(func() { bf.Close() })

	out, errc := bf.Stream(context.Background(), 0, 5)
	for range out {
	}
	if err := <-errc; err == nil {
		t.Fatal("expected error requesting a height beyond what's mapped")
	}
}

func TestNewBlockFiles_BadMagic(t *testing.T) {
	dir := t.TempDir()
	wrongMagic := [4]byte{0x00, 0x00, 0x00, 0x00}
	path := filepath.Join(dir, "blk00000.dat")
	var buf []byte
	buf = append(buf, EncodeBlockFileRecord(wrongMagic, fixtureBlock(0, 1).Bytes())...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewBlockFiles(dir, testMagic, 1)
	if err == nil {
		t.Fatal("expected magic mismatch error")
	}
}

func TestNewBlockFiles_NoFiles(t *testing.T) {
	dir := t.TempDir()
	bf, err := NewBlockFiles(dir, testMagic, 1)
	if err != nil {
		t.Fatalf("NewBlockFiles() error: %v", err)
	}
	t.Cleanup(func() { bf.Close() })
	if len(bf.records) != 0 {
		t.Errorf("records = %d, want 0 for an empty directory", len(bf.records))
	}
}
