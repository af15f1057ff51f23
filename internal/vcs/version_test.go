package vcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/store/sqlite"
)

func setupResolver(t *testing.T) (*Resolver, *Service) {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewResolver(NewRepository(s)), NewService(s)
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name      string
		requested *int64
		wantErr   error
	}{
		{name: "nil means append or latest", requested: nil},
		{name: "latest sentinel", requested: ptr(Latest)},
		{name: "explicit version", requested: ptr(7)},
		{name: "zero rejected", requested: ptr(0), wantErr: common.ErrInvalidVersion},
		{name: "below sentinel rejected", requested: ptr(-2), wantErr: common.ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLastVersion_NumericMaxNotCount(t *testing.T) {
	resolver, svc := setupResolver(t)
	ctx := context.Background()

	for _, v := range []int64{1, 2, 5} {
		upload(t, svc, testID, "body", "desc", ptr(v))
	}

	last, err := resolver.LastVersion(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)
}

func TestResolveUpload_AppendAndOverwrite(t *testing.T) {
	resolver, svc := setupResolver(t)
	ctx := context.Background()

	v, overwrite, err := resolver.ResolveUpload(ctx, testID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.False(t, overwrite)

	upload(t, svc, testID, "body", "desc", ptr(3))

	v, overwrite, err = resolver.ResolveUpload(ctx, testID, ptr(Latest))
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
	assert.False(t, overwrite)

	v, overwrite, err = resolver.ResolveUpload(ctx, testID, ptr(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.True(t, overwrite)

	v, overwrite, err = resolver.ResolveUpload(ctx, testID, ptr(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)
	assert.False(t, overwrite)
}

func TestResolveRead(t *testing.T) {
	resolver, svc := setupResolver(t)
	ctx := context.Background()

	_, err := resolver.ResolveRead(ctx, testID, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	upload(t, svc, testID, "body", "desc", ptr(2))

	v, err := resolver.ResolveRead(ctx, testID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = resolver.ResolveRead(ctx, testID, ptr(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}
