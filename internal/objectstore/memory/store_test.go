package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owndrob/internal/objectstore"
	"owndrob/pkg/cidutil"
)

func TestUploadIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	s := New()
	body := []byte(`{"ipor_name":"Loom"}`)

	first, err := s.Upload(ctx, "Loom", body)
	require.NoError(t, err)
	second, err := s.Upload(ctx, "Loom", body)
	require.NoError(t, err)

	want, err := cidutil.CIDv1RawSHA256(body)
	require.NoError(t, err)
	assert.Equal(t, want, first.CID)
	assert.Equal(t, first.CID, second.CID, "same bytes, same cid")
	assert.NotEqual(t, first.FileHandle, second.FileHandle, "each upload gets its own handle")

	stored, ok := s.Object(first.CID)
	require.True(t, ok)
	assert.Equal(t, body, stored)
	assert.Equal(t, 2, s.FileCount())
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	s := New()

	group, err := s.CreateGroup(ctx, "Loom")
	require.NoError(t, err)
	up, err := s.Upload(ctx, "Loom", []byte("a"))
	require.NoError(t, err)

	results, err := s.AddFilesToGroup(ctx, group.ID, []string{up.FileHandle, "missing"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, objectstore.StatusOK, results[0].Status)
	assert.Equal(t, "NOT_FOUND", results[1].Status)

	// attaching twice does not duplicate membership
	_, err = s.AddFilesToGroup(ctx, group.ID, []string{up.FileHandle})
	require.NoError(t, err)

	files, err := s.ListGroupFiles(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, up.CID, files[0].CID)
	assert.Equal(t, group.ID, files[0].GroupID)

	_, err = s.ListGroupFiles(ctx, "nope")
	assert.Equal(t, objectstore.ErrorNotFound, objectstore.CategoryOf(err))
}

func TestMovingFileLeavesPreviousGroup(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.CreateGroup(ctx, "first")
	require.NoError(t, err)
	second, err := s.CreateGroup(ctx, "second")
	require.NoError(t, err)
	moved, err := s.Upload(ctx, "moved", []byte("a"))
	require.NoError(t, err)
	stays, err := s.Upload(ctx, "stays", []byte("b"))
	require.NoError(t, err)

	_, err = s.AddFilesToGroup(ctx, first.ID, []string{moved.FileHandle, stays.FileHandle})
	require.NoError(t, err)
	_, err = s.AddFilesToGroup(ctx, second.ID, []string{moved.FileHandle})
	require.NoError(t, err)

	files, err := s.ListGroupFiles(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, stays.FileHandle, files[0].FileHandle)

	files, err = s.ListGroupFiles(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, moved.FileHandle, files[0].FileHandle)
	assert.Equal(t, second.ID, files[0].GroupID)
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()
	s := New(WithFault(func(op string) error {
		if op == objectstore.OpCreateGroup {
			return errors.New("boom")
		}
		return nil
	}))

	_, err := s.Upload(ctx, "x", []byte("x"))
	require.NoError(t, err)

	_, err = s.CreateGroup(ctx, "x")
	require.Error(t, err)
	assert.True(t, objectstore.IsRetryable(err))

	s.SetFault(nil)
	_, err = s.CreateGroup(ctx, "x")
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Upload(ctx, "x", []byte("x"))
	assert.Equal(t, objectstore.ErrorTimeout, objectstore.CategoryOf(err))
}
