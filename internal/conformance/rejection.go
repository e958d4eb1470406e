// Package conformance holds shared descriptors for exercising how an asynchronous file API rejects operations
// attempted while the file is engaged in a conflicting one.
package conformance

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

// ErrInvalidState is the only classification a rejected operation may report.
var ErrInvalidState = errors.New("invalid state")

// File is the surface under test.
type File interface {
	Read(ctx context.Context, buf []byte, offset int64) (int, error)
	Write(ctx context.Context, buf []byte, offset int64) (int, error)
	Length(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// FileSystem creates and removes files.
type FileSystem interface {
	Create(ctx context.Context, name string) (File, error)
	Remove(ctx context.Context, name string) error
}

// Operation describes one operation that must be rejected by a busy file.
type Operation struct {
	Name string
	// Prepare returns the buffer the operation works on, or nil when it takes none.
	Prepare func() []byte
	// AssertRejection invokes the operation and asserts it fails with ErrInvalidState.
	AssertRejection func(t testing.TB, ctx context.Context, file File, buf []byte)
	// AssertUnchanged asserts the buffer was left as prepared.
	AssertUnchanged func(t testing.TB, buf []byte)
}

// rejectedOffset points just past the bytes CreateFile seeds.
const rejectedOffset = 4

// Operations returns read, write and getLength, in that order.
func Operations() []Operation {
	return []Operation{
		{
			Name: "read",
			Prepare: func() []byte {
				return make([]byte, 4) //nolint:mnd
			},
			AssertRejection: func(t testing.TB, ctx context.Context, file File, buf []byte) {
				t.Helper()

				_, err := file.Read(ctx, buf, rejectedOffset)
				assert.ErrorIs(t, err, ErrInvalidState)
			},
			AssertUnchanged: func(t testing.TB, buf []byte) {
				t.Helper()

				assert.DeepEqual(t, buf, []byte{0, 0, 0, 0})
			},
		},
		{
			Name: "write",
			Prepare: func() []byte {
				return []byte{96, 97, 98, 99}
			},
			AssertRejection: func(t testing.TB, ctx context.Context, file File, buf []byte) {
				t.Helper()

				_, err := file.Write(ctx, buf, rejectedOffset)
				assert.ErrorIs(t, err, ErrInvalidState)
			},
			AssertUnchanged: func(t testing.TB, buf []byte) {
				t.Helper()

				assert.DeepEqual(t, buf, []byte{96, 97, 98, 99})
			},
		},
		{
			Name:    "getLength",
			Prepare: func() []byte { return nil },
			AssertRejection: func(t testing.TB, ctx context.Context, file File, _ []byte) {
				t.Helper()

				_, err := file.Length(ctx)
				assert.ErrorIs(t, err, ErrInvalidState)
			},
			AssertUnchanged: func(testing.TB, []byte) {},
		},
	}
}

// CreateFile creates name on fsys, registers its close and removal for cleanup, and seeds it with four bytes.
func CreateFile(t testing.TB, fsys FileSystem, name string) File {
	t.Helper()

	ctx := context.Background()

	file, err := fsys.Create(ctx, name)
	assert.NilError(t, err)

	t.Cleanup(func() {
		_ = file.Close(ctx)
		_ = fsys.Remove(ctx, name)
	})

	written, err := file.Write(ctx, []byte{64, 65, 66, 67}, 0)
	assert.NilError(t, err)
	assert.Equal(t, written, 4)

	return file
}
