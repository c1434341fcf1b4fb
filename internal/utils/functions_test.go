package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetermineJobType(t *testing.T) {
	cases := map[string]string{
		"https://example.com/file.zip": "http",
		"http://example.com/file.zip":  "http",
		"s3://bucket/key/object.tar":   "s3",
	}
	for link, want := range cases {
		if got := DetermineJobType(link); got != want {
			t.Errorf("DetermineJobType(%q) = %q, want %q", link, got, want)
		}
	}
}

func TestParseHeaderArgs(t *testing.T) {
	headers := ParseHeaderArgs([]string{
		"Authorization: Bearer token123",
		"X-Custom:value:with:colons",
		"malformed-no-colon",
		"  Accept  :  application/json  ",
	})
	if len(headers) != 3 {
		t.Fatalf("parsed %d headers, want 3: %v", len(headers), headers)
	}
	if headers["Authorization"] != "Bearer token123" {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
	if headers["X-Custom"] != "value:with:colons" {
		t.Errorf("X-Custom = %q, colons after the first should be kept", headers["X-Custom"])
	}
	if headers["Accept"] != "application/json" {
		t.Errorf("Accept = %q, want surrounding spaces trimmed", headers["Accept"])
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(2048, 2); got != "1.00 KB/s" {
		t.Errorf("FormatSpeed(2048, 2) = %q, want 1.00 KB/s", got)
	}
	if got := FormatSpeed(100, 0); got != "0 B/s" {
		t.Errorf("FormatSpeed with zero elapsed = %q, want 0 B/s", got)
	}
}

func TestReadTransferList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.yaml")
	content := `- link: https://example.com/a.zip
  op: downloads/a.zip
- link: s3://bucket/b.tar
  type: s3
`
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := ReadTransferList(listPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(entries))
	}
	if entries[0].URL != "https://example.com/a.zip" || entries[0].OutputPath != "downloads/a.zip" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Type != "s3" {
		t.Errorf("entry 1 type = %q, want s3", entries[1].Type)
	}
}

func TestReadTransferListMissingURL(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(listPath, []byte("- op: out.bin\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTransferList(listPath); err == nil {
		t.Fatal("expected an error for an entry without a link")
	}
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(original, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	renewed := RenewOutputPath(original)
	if renewed != filepath.Join(dir, "file-(1).bin") {
		t.Errorf("renewed path = %q", renewed)
	}
	if err := os.WriteFile(renewed, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if again := RenewOutputPath(original); again != filepath.Join(dir, "file-(2).bin") {
		t.Errorf("second renewal = %q", again)
	}
}
