package media

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gowvp/lookout/internal/conf"
)

type fixture struct {
	core   Core
	frames string
	hls    string
	secret string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		frames: filepath.Join(base, "detected_frames"),
		hls:    filepath.Join(base, "hls_output"),
		secret: filepath.Join(base, "secret.txt"),
	}
	for _, dir := range []string{f.frames, f.hls, filepath.Join(f.frames, "sub")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, f.secret, []byte("top secret"))
	f.core = NewCore(&conf.Media{FramesDir: f.frames, HLSDir: f.hls, Playlist: "stream.m3u8"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenByteExact(t *testing.T) {
	f := newFixture(t)
	want := make([]byte, 64*1024)
	for i := range want {
		want[i] = byte(i * 7)
	}
	writeFile(t, filepath.Join(f.hls, "segment_00042.ts"), want)

	a, err := f.core.Open(NamespaceHLS, "segment_00042.ts")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	got, err := io.ReadAll(a)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("content differs")
	}
	if a.Size != int64(len(want)) || a.ContentType != ContentTypeTS {
		t.Fatalf("asset = %+v", a)
	}
}

func TestOpenNested(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.frames, "sub", "frame_1.jpg"), []byte{0xff, 0xd8})

	a, err := f.core.Open(NamespaceImages, "sub/frame_1.jpg")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.ContentType != "image/jpeg" {
		t.Fatalf("content type = %s", a.ContentType)
	}
}

func TestOpenRejectsEscape(t *testing.T) {
	f := newFixture(t)
	if err := os.Symlink(f.secret, filepath.Join(f.frames, "link.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Dir(f.secret), filepath.Join(f.frames, "up")); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"../secret.txt",
		"sub/../../secret.txt",
		"sub/..",
		"..",
		f.secret,
		"/secret.txt",
		"frame\x00.jpg",
		"link.txt",
		"up/secret.txt",
	} {
		t.Run(name, func(t *testing.T) {
			a, err := f.core.Open(NamespaceImages, name)
			if err == nil {
				a.Close()
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestOpenNotFound(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"missing.jpg", "sub", "sub/", "missing/dir/frame.jpg"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.core.Open(NamespaceImages, name)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("err = %v", err)
			}
		})
	}

	if _, err := f.core.Open("videos", "a.mp4"); !errors.Is(err, ErrUnknownNamespace) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenMissingRoot(t *testing.T) {
	c := NewCore(&conf.Media{FramesDir: filepath.Join(t.TempDir(), "none"), HLSDir: t.TempDir()}, slog.Default())
	if _, err := c.Open(NamespaceImages, "frame.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"stream.m3u8":   "application/vnd.apple.mpegurl",
		"segment_1.ts":  "video/mp2t",
		"chunk.m4s":     "video/iso.segment",
		"init.mp4":      "video/mp4",
		"frame.JPG":     "image/jpeg",
		"frame.jpeg":    "image/jpeg",
		"frame.png":     "image/png",
		"blob.unknownx": "application/octet-stream",
		"noext":         "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

const livePlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:2
#EXT-X-MEDIA-SEQUENCE:17
#EXTINF:2.000000,
stream17.ts
#EXTINF:2.000000,
stream18.ts
#EXTINF:1.960000,
stream19.ts
`

func TestPlaylistStatus(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.hls, "stream.m3u8")
	writeFile(t, path, []byte(livePlaylist))
	mod := time.Now().Add(-time.Second)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}

	st, err := f.core.playlistStatus(mod.Add(2 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if st.MediaSequence != 17 || st.TargetDuration != 2 || st.Closed || st.Stale {
		t.Fatalf("status = %+v", st)
	}
	if len(st.Segments) != 3 || st.Segments[0].URI != "stream17.ts" || st.Segments[2].Duration != 1.96 {
		t.Fatalf("segments = %+v", st.Segments)
	}

	st, err = f.core.playlistStatus(mod.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !st.Stale {
		t.Fatal("expected stale playlist")
	}
}

func TestPlaylistStatusClosedAndMissing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.core.PlaylistStatus(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	writeFile(t, filepath.Join(f.hls, "stream.m3u8"), []byte(livePlaylist+"#EXT-X-ENDLIST\n"))
	st, err := f.core.PlaylistStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Closed || st.Stale {
		t.Fatalf("status = %+v", st)
	}
}

func TestOpenSymlinkInsideRoot(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.frames, "sub", "frame_2.jpg"), []byte("jpeg"))
	if err := os.Symlink(filepath.Join("sub", "frame_2.jpg"), filepath.Join(f.frames, "latest.jpg")); err != nil {
		t.Fatal(err)
	}

	a, err := f.core.Open(NamespaceImages, "latest.jpg")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := io.ReadAll(a)
	if err != nil || string(b) != "jpeg" {
		t.Fatalf("content = %q err = %v", b, err)
	}
}
