package ledger

import (
	"archive/tar"
	"io"
	"time"
)

// deterministicTarWriter wraps archive/tar.Writer and zeroes every
// field that would otherwise make two packs of identical content
// produce different bytes: modification time, uid/gid, and owner
// names (determinism requirement, spec.md §4.9).
type deterministicTarWriter struct {
	tw *tar.Writer
}

func newDeterministicTarWriter(w io.Writer) *deterministicTarWriter {
	return &deterministicTarWriter{tw: tar.NewWriter(w)}
}

func (d *deterministicTarWriter) WriteEntry(name string, data []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  time.Unix(0, 0).UTC(),
		Uid:      0,
		Gid:      0,
		Uname:    "",
		Gname:    "",
		Typeflag: tar.TypeReg,
	}
	if err := d.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := d.tw.Write(data)
	return err
}

func (d *deterministicTarWriter) Close() error {
	return d.tw.Close()
}
