package physical

import (
	"bufio"
	"os"
)

// runWriter buffers writes to one spill file; each Write call serializes
// one Batch via WriteBatch (codec.go).
type runWriter struct {
	file   *os.File
	buf    *bufio.Writer
	schema *Schema
}

func createRun(name string, schema *Schema) (*runWriter, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, wrapSpillError("createRun", err)
	}
	return &runWriter{file: f, buf: bufio.NewWriter(f), schema: schema}, nil
}

func (w *runWriter) Write(b *Batch) error {
	if err := WriteBatch(w.buf, w.schema, b); err != nil {
		return wrapSpillError("runWriter.Write", err)
	}
	return nil
}

func (w *runWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return wrapSpillError("runWriter.Close", err)
	}
	return w.file.Close()
}

// runReader sequentially reads batches from one spill file.
type runReader struct {
	file     *os.File
	buf      *bufio.Reader
	schema   *Schema
	capacity int
}

func openRun(name string, schema *Schema, capacity int) (*runReader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, wrapSpillError("openRun", err)
	}
	return &runReader{file: f, buf: bufio.NewReader(f), schema: schema, capacity: capacity}, nil
}

// Next returns the next batch, or (nil, nil) at a clean end-of-run. Any
// other error means the file is corrupt or unreadable past this point.
func (r *runReader) Next() (*Batch, error) {
	return ReadBatch(r.buf, r.schema, r.capacity)
}

func (r *runReader) Close() error {
	return r.file.Close()
}

func removeRun(name string) error {
	return os.Remove(name)
}
