package conformance_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason/internal/conformance"
)

func TestOperationsOrder(t *testing.T) {
	t.Parallel()

	names := []string{}
	for _, op := range conformance.Operations() {
		names = append(names, op.Name)
	}

	assert.DeepEqual(t, names, []string{"read", "write", "getLength"})
}

func TestBusyFileRejectsOperations(t *testing.T) {
	t.Parallel()

	for _, op := range conformance.Operations() {
		t.Run(op.Name, func(t *testing.T) {
			t.Parallel()

			fsys := conformance.NewMemFS()
			file := conformance.CreateFile(t, fsys, "busy")

			release, err := file.(*conformance.MemFile).Hold()
			assert.NilError(t, err)

			buf := op.Prepare()
			op.AssertRejection(t, context.Background(), file, buf)
			op.AssertUnchanged(t, buf)

			release()
		})
	}
}

func TestReleasedFileServesOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fsys := conformance.NewMemFS()
	file := conformance.CreateFile(t, fsys, "idle")

	release, err := file.(*conformance.MemFile).Hold()
	assert.NilError(t, err)

	_, err = file.(*conformance.MemFile).Hold()
	assert.ErrorIs(t, err, conformance.ErrInvalidState)
	assert.ErrorIs(t, file.Close(ctx), conformance.ErrInvalidState)

	release()
	release()

	buf := make([]byte, 4)
	n, err := file.Read(ctx, buf, 0)
	assert.NilError(t, err)
	assert.Equal(t, n, 4)
	assert.DeepEqual(t, buf, []byte{64, 65, 66, 67})

	length, err := file.Length(ctx)
	assert.NilError(t, err)
	assert.Equal(t, length, int64(4))

	_, err = file.Write(ctx, []byte{1}, 6)
	assert.NilError(t, err)

	length, err = file.Length(ctx)
	assert.NilError(t, err)
	assert.Equal(t, length, int64(7))
}

func TestMemFSCreateRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fsys := conformance.NewMemFS()

	_, err := fsys.Create(ctx, "a")
	assert.NilError(t, err)

	_, err = fsys.Create(ctx, "a")
	assert.ErrorIs(t, err, conformance.ErrExist)

	assert.NilError(t, fsys.Remove(ctx, "a"))
	assert.ErrorIs(t, fsys.Remove(ctx, "a"), conformance.ErrNotExist)
}

func TestClosedFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	file, err := conformance.NewMemFS().Create(ctx, "closed")
	assert.NilError(t, err)
	assert.NilError(t, file.Close(ctx))
	assert.NilError(t, file.Close(ctx))

	_, err = file.Length(ctx)
	assert.ErrorIs(t, err, conformance.ErrClosed)
}

func TestNegativeOffset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := conformance.CreateFile(t, conformance.NewMemFS(), "negative")

	buf := make([]byte, 4)

	_, err := file.Read(ctx, buf, -1)
	assert.ErrorIs(t, err, conformance.ErrOffset)
	assert.DeepEqual(t, buf, []byte{0, 0, 0, 0})

	_, err = file.Write(ctx, []byte{1}, -1)
	assert.ErrorIs(t, err, conformance.ErrOffset)

	length, err := file.Length(ctx)
	assert.NilError(t, err)
	assert.Equal(t, length, int64(4))
}

func TestRejectedOperationsLeaveFileIntact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := conformance.CreateFile(t, conformance.NewMemFS(), "intact")

	release, err := file.(*conformance.MemFile).Hold()
	assert.NilError(t, err)

	for _, op := range conformance.Operations() {
		op.AssertRejection(t, ctx, file, op.Prepare())
	}

	release()

	// The rejected write at offset 4 must not have extended the file.
	length, err := file.Length(ctx)
	assert.NilError(t, err)
	assert.Equal(t, length, int64(4))

	buf := make([]byte, 4)
	_, err = file.Read(ctx, buf, 0)
	assert.NilError(t, err)
	assert.DeepEqual(t, buf, []byte{64, 65, 66, 67})
}
