package webdavfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"golang.org/x/net/webdav"

	"github.com/miriki/ti99-dskimg-lib-sub001/geometry"
	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

func newHandle(t *testing.T) *ti99.Handle {
	t.Helper()
	h, err := ti99.Create(geometry.SSSD40)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRootReaddirEmpty(t *testing.T) {
	fsys := New(newHandle(t))
	f, err := fsys.OpenFile(context.Background(), "/", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	infos, err := f.Readdir(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("expected empty root, got %d entries", len(infos))
	}
}

func TestWriteThenReadFile(t *testing.T) {
	fsys := New(newHandle(t))
	ctx := context.Background()

	w, err := fsys.OpenFile(ctx, "/HELLO", os.O_WRONLY|os.O_CREATE, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := fsys.OpenFile(ctx, "/HELLO", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello world")) {
		t.Fatalf("got %q, want %q", got, "hello world")
	}

	info, err := fsys.Stat(ctx, "/HELLO")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(len("hello world")) {
		t.Errorf("Size() = %d, want %d", info.Size(), len("hello world"))
	}
}

func TestOverwriteExistingFile(t *testing.T) {
	fsys := New(newHandle(t))
	ctx := context.Background()

	for _, content := range []string{"first version", "second, longer version"} {
		w, err := fsys.OpenFile(ctx, "/HELLO", os.O_WRONLY|os.O_CREATE, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}

	r, err := fsys.OpenFile(ctx, "/HELLO", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second, longer version" {
		t.Fatalf("got %q, want the overwritten content", got)
	}
}

func TestStatMissingFile(t *testing.T) {
	fsys := New(newHandle(t))
	if _, err := fsys.Stat(context.Background(), "/NOPE"); !os.IsNotExist(err) {
		t.Errorf("Stat of missing file = %v, want os.ErrNotExist", err)
	}
}

func TestRenameAndRemove(t *testing.T) {
	fsys := New(newHandle(t))
	ctx := context.Background()

	w, err := fsys.OpenFile(ctx, "/OLD", os.O_WRONLY|os.O_CREATE, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("x"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if err := fsys.Rename(ctx, "/OLD", "/NEW"); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Stat(ctx, "/OLD"); !os.IsNotExist(err) {
		t.Errorf("OLD should be gone after rename, got %v", err)
	}
	if _, err := fsys.Stat(ctx, "/NEW"); err != nil {
		t.Fatal(err)
	}

	if err := fsys.RemoveAll(ctx, "/NEW"); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Stat(ctx, "/NEW"); !os.IsNotExist(err) {
		t.Errorf("NEW should be gone after RemoveAll, got %v", err)
	}
}

func TestMkdirUnsupported(t *testing.T) {
	fsys := New(newHandle(t))
	if err := fsys.Mkdir(context.Background(), "/SUB", 0); err == nil {
		t.Error("Mkdir should be unsupported")
	}
}

var _ webdav.FileSystem = (*FS)(nil)
