package internal

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", "latin1", "windows-1252", "shift_jis"} {
		if _, err := LookupEncoding(name); err != nil {
			t.Fatalf("LookupEncoding(%q): %v", name, err)
		}
	}
	if _, err := LookupEncoding("klingon"); !errors.Is(err, ErrUnknownEncoding) {
		t.Fatalf("expected ErrUnknownEncoding, got %v", err)
	}
}

func TestDecodeReader_ReplacesInvalidUTF8(t *testing.T) {
	enc, _ := LookupEncoding("utf-8")
	out, err := io.ReadAll(DecodeReader(strings.NewReader("ok \xff\xfe end"), enc))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(out), "\uFFFD") || !strings.HasPrefix(string(out), "ok ") || !strings.HasSuffix(string(out), " end") {
		t.Fatalf("unexpected decode: %q", out)
	}
}

func TestDecodeReader_Latin1(t *testing.T) {
	enc, _ := LookupEncoding("latin1")
	out, err := io.ReadAll(DecodeReader(strings.NewReader("caf\xe9"), enc))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "café" {
		t.Fatalf("got %q", out)
	}
}

func TestDecodeChunk_KeepsSplitCharacters(t *testing.T) {
	enc, _ := LookupEncoding("utf-16le")
	src, err := enc.NewEncoder().Bytes([]byte("héllo\n"))
	if err != nil {
		t.Fatal(err)
	}
	dec := enc.NewDecoder()

	// odd cut: the last code unit is incomplete and must stay unconsumed
	first, used, err := decodeChunk(dec, src[:5])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(first) != "hé" || used != 4 {
		t.Fatalf("got %q used=%d", first, used)
	}
	rest, used2, err := decodeChunk(dec, src[used:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(first)+string(rest) != "héllo\n" || used+used2 != len(src) {
		t.Fatalf("got %q+%q", first, rest)
	}
}

func TestDecodeChunk_Latin1(t *testing.T) {
	enc, _ := LookupEncoding("latin1")
	got, used, err := decodeChunk(enc.NewDecoder(), []byte("na\xefve"))
	if err != nil || string(got) != "naïve" || used != 6 {
		t.Fatalf("got %q used=%d err=%v", got, used, err)
	}
}
