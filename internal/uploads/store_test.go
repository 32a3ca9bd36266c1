package uploads

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"

	"docverify/internal/verification"
	"docverify/pkg/platform/sentinel"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPut_KeyLayoutAndRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	key, err := store.Put(ctx, verification.Upload{
		Kind:        verification.DocSSCCertificate,
		Filename:    "Marks.PDF",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 body"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "uploads/ssc_certificate/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 body"), data)

	attrs, err := store.bucket.Attributes(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", attrs.ContentType)
	assert.Equal(t, "Marks.PDF", attrs.Metadata["filename"])
}

func TestPut_KeysAreUnique(t *testing.T) {
	store := newStore(t)
	upload := verification.Upload{Kind: verification.DocSelfie, Filename: "me.jpg", Data: []byte("x")}

	a, err := store.Put(context.Background(), upload)
	require.NoError(t, err)
	b, err := store.Put(context.Background(), upload)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPut_SniffsExtensionWithoutFilename(t *testing.T) {
	store := newStore(t)

	key, err := store.Put(context.Background(), verification.Upload{
		Kind: verification.DocGovIDPhoto,
		Data: []byte("%PDF-1.7\n"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
}

func TestGet_MissingKey(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "uploads/selfie/nope.jpg")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	key, err := store.Put(ctx, verification.Upload{Kind: verification.DocSelfie, Filename: "me.png", Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	exists, err := store.bucket.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHealthy(t *testing.T) {
	store := New(mustOpen(t))
	assert.NoError(t, store.Healthy(context.Background()))
}

func mustOpen(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })
	return bucket
}
