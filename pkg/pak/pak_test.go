package pak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testFile struct {
	name    string
	content []byte
}

// buildPak writes a PACK with files stored back to back after the header
// and the directory at the end.
func buildPak(files []testFile) []byte {
	var body bytes.Buffer
	body.Write(make([]byte, headerSize))

	var dir []rawEntry
	for _, f := range files {
		var e rawEntry
		copy(e.Name[:], f.name)
		e.Offset = int32(body.Len())
		e.Size = int32(len(f.content))
		body.Write(f.content)
		dir = append(dir, e)
	}

	dirOffset := body.Len()
	binary.Write(&body, binary.LittleEndian, dir)

	out := body.Bytes()
	copy(out[0:4], pakMagic)
	binary.LittleEndian.PutUint32(out[4:], uint32(dirOffset))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(dir)*entrySize))
	return out
}

var testFiles = []testFile{
	{"maps/e1m1.bsp", []byte("not really a map")},
	{"progs.dat", []byte{1, 2, 3}},
	{"Sound\\Misc\\Null.wav", nil},
}

func TestOpenReader(t *testing.T) {
	data := buildPak(testFiles)
	archive, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}

	files := archive.List()
	want := []string{"maps/e1m1.bsp", "progs.dat", "sound/misc/null.wav"}
	if len(files) != len(want) {
		t.Fatalf("List() = %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, files[i], want[i])
		}
	}

	got, err := archive.Read("MAPS/E1M1.BSP")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "not really a map" {
		t.Errorf("content = %q", got)
	}

	if e, ok := archive.Entry("progs.dat"); !ok || e.Size != 3 {
		t.Errorf("Entry(progs.dat) = %+v, %v", e, ok)
	}
	if !archive.Contains("sound/misc/null.wav") {
		t.Error("Contains(null.wav) = false")
	}
	if _, err := archive.Read("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(missing) error = %v", err)
	}
}

func TestOpenReader_Malformed(t *testing.T) {
	good := buildPak(testFiles)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"short", func(b []byte) []byte { return b[:8] }, ErrNotPak},
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrNotPak},
		{"dir length", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[8:], 65); return b }, ErrBadDirectory},
		{"dir past end", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[4:], uint32(len(b))); return b }, ErrBadDirectory},
		{"entry past end", func(b []byte) []byte {
			dirOffset := binary.LittleEndian.Uint32(b[4:])
			binary.LittleEndian.PutUint32(b[dirOffset+nameSize+4:], 1<<20)
			return b
		}, ErrBadDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			_, err := OpenReader(bytes.NewReader(data), int64(len(data)))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadPath(t *testing.T) {
	dir := t.TempDir()
	pakPath := filepath.Join(dir, "pak0.pak")
	if err := os.WriteFile(pakPath, buildPak(testFiles), 0644); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain.bsp")
	if err := os.WriteFile(plain, []byte("plain"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPath(pakPath + ":maps/e1m1.bsp")
	if err != nil || string(got) != "not really a map" {
		t.Errorf("ReadPath(member) = %q, %v", got, err)
	}
	got, err = ReadPath(plain)
	if err != nil || string(got) != "plain" {
		t.Errorf("ReadPath(plain) = %q, %v", got, err)
	}
	if _, err := ReadPath(pakPath + ":maps/e9m9.bsp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing member error = %v", err)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in, archive, member string
		ok                  bool
	}{
		{"id1/PAK0.PAK:maps/start.bsp", "id1/PAK0.PAK", "maps/start.bsp", true},
		{"maps/start.bsp", "", "", false},
		{"C:/quake/pak1.pak:maps/e2m1.bsp", "C:/quake/pak1.pak", "maps/e2m1.bsp", true},
	}
	for _, tt := range tests {
		a, m, ok := SplitPath(tt.in)
		if a != tt.archive || m != tt.member || ok != tt.ok {
			t.Errorf("SplitPath(%q) = %q, %q, %v", tt.in, a, m, ok)
		}
	}
}
