// Copyright © 2026 The ti99-dskimg-lib Authors

// Package webdavfs adapts a ti99.Handle to golang.org/x/net/webdav's
// FileSystem interface, so one disk image can be mounted and browsed
// or edited over HTTP. Because TI-DOS has no subdirectories, the
// whole image is one flat WebDAV collection: a synthesized root
// directory plus per-file handles, with fs.FileInfo values built by
// hand rather than read off a host filesystem.
package webdavfs

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/net/webdav"

	"github.com/miriki/ti99-dskimg-lib-sub001/fdr"
	"github.com/miriki/ti99-dskimg-lib-sub001/ti99"
)

// FS is the golang.org/x/net/webdav.FileSystem implementation wrapping
// a single Handle. TI-DOS has no subdirectories, so every non-root
// path is a flat filename lookup.
type FS struct {
	h       *ti99.Handle
	created time.Time
}

// New wraps h as a webdav.FileSystem. created is used as the
// synthesized modification time for the root collection and for files
// still open for writing; stored files report their FDR's update stamp.
func New(h *ti99.Handle) *FS {
	return &FS{h: h, created: time.Now()}
}

func cleanName(name string) string {
	name = strings.TrimPrefix(name, "/")
	return strings.TrimSuffix(name, "/")
}

// Mkdir is always rejected: TI-DOS images in this library's scope have
// no subdirectories below the root FDI.
func (*FS) Mkdir(context.Context, string, fs.FileMode) error {
	return errors.ErrUnsupported
}

func (fsys *FS) OpenFile(_ context.Context, name string, flag int, _ fs.FileMode) (webdav.File, error) {
	name = cleanName(name)
	if name == "" {
		return &rootHandle{fsys: fsys}, nil
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0
	exists, err := fsys.h.Exists(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		if !writable {
			return nil, os.ErrNotExist
		}
		return &fileHandle{fsys: fsys, name: strings.ToUpper(name), writing: true}, nil
	}

	entry, err := fsys.lookupEntry(name)
	if err != nil {
		return nil, err
	}
	if writable {
		return &fileHandle{fsys: fsys, name: entry.Name, writing: true, existed: true}, nil
	}

	data, err := fsys.h.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &fileHandle{
		fsys:    fsys,
		name:    entry.Name,
		entry:   entry,
		content: bytes.NewReader(data),
	}, nil
}

func (fsys *FS) Stat(_ context.Context, name string) (fs.FileInfo, error) {
	name = cleanName(name)
	if name == "" {
		return &rootInfo{created: fsys.created}, nil
	}
	entry, err := fsys.lookupEntry(name)
	if err != nil {
		return nil, err
	}
	return fileInfoFromEntry(entry), nil
}

func (fsys *FS) lookupEntry(name string) (ti99.FileEntry, error) {
	files, err := fsys.h.ListFiles()
	if err != nil {
		return ti99.FileEntry{}, err
	}
	for _, f := range files {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return ti99.FileEntry{}, os.ErrNotExist
}

func (fsys *FS) Rename(_ context.Context, oldName, newName string) error {
	oldName, newName = cleanName(oldName), cleanName(newName)
	if oldName == "" || newName == "" {
		return errors.ErrUnsupported
	}
	return fsys.h.RenameFile(oldName, newName)
}

func (fsys *FS) RemoveAll(_ context.Context, name string) error {
	name = cleanName(name)
	if name == "" {
		return errors.ErrUnsupported
	}
	return fsys.h.DeleteFile(name, true)
}

// rootInfo is the synthesized fs.FileInfo for the root collection.
type rootInfo struct {
	created time.Time
}

func (r *rootInfo) Name() string       { return "/" }
func (r *rootInfo) Size() int64        { return 0 }
func (r *rootInfo) Mode() fs.FileMode  { return fs.ModeDir | fs.ModePerm }
func (r *rootInfo) ModTime() time.Time { return r.created }
func (r *rootInfo) IsDir() bool        { return true }
func (r *rootInfo) Sys() any           { return nil }

// fileInfo is the synthesized fs.FileInfo for one TI-DOS file.
type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (f *fileInfo) Name() string       { return f.name }
func (f *fileInfo) Size() int64        { return f.size }
func (f *fileInfo) Mode() fs.FileMode  { return fs.ModePerm }
func (f *fileInfo) ModTime() time.Time { return f.modTime }
func (f *fileInfo) IsDir() bool        { return false }
func (f *fileInfo) Sys() any           { return nil }

func fileInfoFromEntry(e ti99.FileEntry) *fileInfo {
	return &fileInfo{
		name:    e.Name,
		size:    int64(e.SizeBytes),
		modTime: timestampToTime(e.UpdatedAt),
	}
}

// timestampToTime decodes the 4-byte create/update stamp (the
// fdr.TiClock packing) into a time.Time; malformed or zero stamps fall
// back to the zero time, which webdav.Handler treats as "unknown".
func timestampToTime(stamp [4]byte) time.Time {
	if stamp == ([4]byte{}) {
		return time.Time{}
	}
	c := fdr.TiClock(stamp)
	if c.Validate() != nil {
		return time.Time{}
	}
	return c.Time()
}

// rootHandle is the webdav.File for the root collection: readdir-only,
// no content.
type rootHandle struct {
	fsys   *FS
	offset int
}

func (*rootHandle) Close() error                   { return nil }
func (*rootHandle) Read([]byte) (int, error)       { return 0, errors.ErrUnsupported }
func (*rootHandle) Write([]byte) (int, error)      { return 0, errors.ErrUnsupported }
func (*rootHandle) Seek(int64, int) (int64, error) { return 0, errors.ErrUnsupported }

func (r *rootHandle) Stat() (fs.FileInfo, error) {
	return &rootInfo{created: r.fsys.created}, nil
}

func (r *rootHandle) Readdir(count int) ([]fs.FileInfo, error) {
	files, err := r.fsys.h.ListFiles()
	if err != nil {
		return nil, err
	}
	var infos []fs.FileInfo
	for i := r.offset; i < len(files); i++ {
		infos = append(infos, fileInfoFromEntry(files[i]))
	}
	if count > 0 && len(infos) > count {
		infos = infos[:count]
	}
	r.offset += len(infos)
	return infos, nil
}

// fileHandle is the webdav.File for a single TI-99 file. Reads stream
// from an already-decoded in-memory buffer; writes buffer in memory
// and commit on Close, since file creation on a disk image is
// all-or-nothing — there is no partial-write state visible on disk.
type fileHandle struct {
	fsys    *FS
	name    string
	entry   ti99.FileEntry
	content *bytes.Reader
	writing bool
	existed bool
	buf     bytes.Buffer
	closed  bool
}

func (f *fileHandle) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.writing {
		return nil
	}
	if f.existed {
		if err := f.fsys.h.DeleteFile(f.name, true); err != nil {
			return err
		}
	}
	return f.fsys.h.WriteFile(f.name, f.buf.Bytes(), ti99.TypeProgram, ti99.RecordNone, 0)
}

func (f *fileHandle) Read(p []byte) (int, error) {
	if f.content == nil {
		return 0, errors.ErrUnsupported
	}
	return f.content.Read(p)
}

func (f *fileHandle) Write(p []byte) (int, error) {
	if !f.writing {
		return 0, errors.ErrUnsupported
	}
	return f.buf.Write(p)
}

func (f *fileHandle) Seek(offset int64, whence int) (int64, error) {
	if f.content == nil {
		return 0, errors.ErrUnsupported
	}
	return f.content.Seek(offset, whence)
}

func (f *fileHandle) Stat() (fs.FileInfo, error) {
	if f.writing {
		return &fileInfo{name: f.name, size: int64(f.buf.Len()), modTime: f.fsys.created}, nil
	}
	return fileInfoFromEntry(f.entry), nil
}

func (*fileHandle) Readdir(int) ([]fs.FileInfo, error) {
	return nil, errors.ErrUnsupported
}
