// Package flat stores enriched rides as files under a data directory:
//
//	<root>/rides/<ride id>/enriched.geojson.gz
//	<root>/rides/<ride id>/summary.json
package flat

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/rotblauer/gneiss/params"
)

var ErrRideNotFound = errors.New("ride not found")

type Flat struct {
	// path includes the root directory.
	path string
}

func NewFlatWithRoot(root string) *Flat {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		root, _ = filepath.Abs(root)
	}
	return &Flat{path: root}
}

// ForRide returns a new Flat for the ride's directory.
func (f *Flat) ForRide(id string) *Flat {
	return f.Joining(params.RidesDir, id)
}

// Joining returns a new Flat at the joined path; f is unchanged.
func (f *Flat) Joining(paths ...string) *Flat {
	return &Flat{path: filepath.Join(append([]string{f.path}, paths...)...)}
}

// Exists returns true if the directory exists.
func (f *Flat) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *Flat) MkdirAll() error {
	return os.MkdirAll(f.path, 0770)
}

func (f *Flat) Path() string {
	return f.path
}

// Rides lists the stored ride ids, sorted.
func (f *Flat) Rides() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.path, params.RidesDir))
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *Flat) NamedGZWriter(name string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	return NewGZFileWriter(filepath.Join(f.path, name), config)
}

func (f *Flat) NamedGZReader(name string) (*GZFileReader, error) {
	return NewGZFileReader(filepath.Join(f.path, name))
}

// WriteFile replaces the named file via a temp file and rename.
func (f *Flat) WriteFile(name string, data []byte) error {
	if err := f.MkdirAll(); err != nil {
		return err
	}
	target := filepath.Join(f.path, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0660); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func (f *Flat) ReadFile(name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(f.path, name))
	if os.IsNotExist(err) {
		return nil, ErrRideNotFound
	}
	return b, err
}

// WriteGZ replaces the named gzip file with data.
func (f *Flat) WriteGZ(name string, data []byte) error {
	w, err := f.NamedGZWriter(name, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ReadGZ returns the decompressed contents of the named gzip file.
func (f *Flat) ReadGZ(name string) ([]byte, error) {
	r, err := f.NamedGZReader(name)
	if os.IsNotExist(err) {
		return nil, ErrRideNotFound
	} else if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r.Reader())
}

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool

	GZFileWriterConfig
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode

	// Truncate empties the file once the exclusive lock is held.
	Truncate bool
}

// DefaultGZFileWriterConfig truncates; a ride file is written whole.
func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: params.DefaultGZipCompressionLevel,
		Flag:             os.O_WRONLY | os.O_CREATE,
		Truncate:         true,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewGZFileWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gzw: gzw, GZFileWriterConfig: *config}, nil
}

// lock takes the exclusive lock, truncating only once it is held
// so readers with a shared lock never see a partial file.
func (g *GZFileWriter) lock() error {
	if g.locked {
		return nil
	}
	if err := syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	g.locked = true
	if !g.Truncate {
		return nil
	}
	if err := g.f.Truncate(0); err != nil {
		return err
	}
	_, err := g.f.Seek(0, io.SeekStart)
	return err
}

// Write holds an exclusive lock on the file until Close.
func (g *GZFileWriter) Write(p []byte) (int, error) {
	if err := g.lock(); err != nil {
		return 0, err
	}
	return g.gzw.Write(p)
}

func (g *GZFileWriter) Close() error {
	if err := g.lock(); err != nil {
		g.f.Close()
		return err
	}
	if err := g.gzw.Close(); err != nil {
		g.f.Close()
		return err
	}
	if err := g.f.Sync(); err != nil {
		g.f.Close()
		return err
	}
	// Closing the descriptor releases the lock.
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

type GZFileReader struct {
	f      *os.File
	gzr    *gzip.Reader
	closed bool
}

func NewGZFileReader(path string) (*GZFileReader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(fi.Fd()), syscall.LOCK_SH); err != nil {
		fi.Close()
		return nil, err
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return &GZFileReader{f: fi, gzr: gzr}, nil
}

// Reader returns a gzip reader for the file.
// A shared lock is held on the file until Close.
func (g *GZFileReader) Reader() *gzip.Reader {
	return g.gzr
}

func (g *GZFileReader) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
