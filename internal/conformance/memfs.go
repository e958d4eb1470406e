package conformance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	ErrExist    = errors.New("file already exists")
	ErrNotExist = errors.New("file does not exist")
	ErrClosed   = errors.New("file is closed")
	ErrOffset   = errors.New("offset must not be negative")
)

// MemFS is an in-memory FileSystem whose files reject every operation while another one holds them.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*MemFile
}

func NewMemFS() *MemFS {
	return &MemFS{files: map[string]*MemFile{}}
}

func (m *MemFS) Create(_ context.Context, name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.files[name]; found {
		return nil, fmt.Errorf("%w: %s", ErrExist, name)
	}

	file := &MemFile{}
	m.files[name] = file

	return file, nil
}

func (m *MemFS) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.files[name]; !found {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}

	delete(m.files, name)

	return nil
}

// MemFile is safe for concurrent use; conflicting operations fail instead of waiting.
type MemFile struct {
	mu     sync.Mutex
	busy   bool
	closed bool
	data   []byte
}

// Hold marks the file engaged until the returned release func is called, as a long running operation would.
func (f *MemFile) Hold() (func(), error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}

	var once sync.Once

	return func() { once.Do(f.release) }, nil
}

func (f *MemFile) acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return ErrClosed
	case f.busy:
		return ErrInvalidState
	}

	f.busy = true

	return nil
}

func (f *MemFile) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *MemFile) Read(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if offset < 0 {
		return 0, fmt.Errorf("%w: %d", ErrOffset, offset)
	}

	if err := f.acquire(); err != nil {
		return 0, err
	}
	defer f.release()

	if offset >= int64(len(f.data)) {
		return 0, io.EOF
	}

	return copy(buf, f.data[offset:]), nil
}

func (f *MemFile) Write(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if offset < 0 {
		return 0, fmt.Errorf("%w: %d", ErrOffset, offset)
	}

	if err := f.acquire(); err != nil {
		return 0, err
	}
	defer f.release()

	if end := offset + int64(len(buf)); end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}

	return copy(f.data[offset:], buf), nil
}

func (f *MemFile) Length(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := f.acquire(); err != nil {
		return 0, err
	}
	defer f.release()

	return int64(len(f.data)), nil
}

// Close is idempotent. Closing a held file is rejected.
func (f *MemFile) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.busy {
		return ErrInvalidState
	}

	f.closed = true

	return nil
}
