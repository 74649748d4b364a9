package uploads

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePaymentProof(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	path, err := s.SavePaymentProof("ord-1", "receipt.JPG", bytes.NewReader([]byte("fake image bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/"), "public path must be absolute: %s", path)
	assert.Contains(t, path, "payment_proofs/payment_proof_ord-1_")
	assert.True(t, strings.HasSuffix(path, ".jpg"), "extension must be lowercased: %s", path)

	matches, err := filepath.Glob(filepath.Join(s.Root, "payment_proofs", "payment_proof_ord-1_*.jpg"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	b, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(b))
}

func TestSaveReceiptProof(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	path, err := s.SaveReceiptProof("ord-2", "photo.png", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Contains(t, path, "receipts/receipt_proof_ord-2_")
}

func TestSaveRejectsBadType(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	for _, name := range []string{"proof.pdf", "proof.exe", "proof", ""} {
		_, err := s.SavePaymentProof("ord-3", name, bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, ErrBadFileType, "filename %q", name)
	}
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	_, err := s.SavePaymentProof("ord-4", "proof.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	// nothing left behind
	entries, err := os.ReadDir(filepath.Join(s.Root, "payment_proofs"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiscard(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	path, err := s.SavePaymentProof("ord-7", "proof.png", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	s.Discard(path)

	matches, err := filepath.Glob(filepath.Join(s.Root, "payment_proofs", "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "discarded proof must be removed")
}

func TestDiscardIgnoresForeignPath(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	s := &Store{Root: t.TempDir()}
	s.Discard(outside)
	s.Discard("/" + filepath.ToSlash(outside))

	_, err := os.Stat(outside)
	assert.NoError(t, err, "paths outside the store root stay untouched")
}

func TestSaveSizeLimit(t *testing.T) {
	s := &Store{Root: t.TempDir()}

	atLimit := bytes.Repeat([]byte{0xAB}, MaxFileSize)
	_, err := s.SavePaymentProof("ord-5", "big.png", bytes.NewReader(atLimit))
	assert.NoError(t, err, "exactly at the limit must pass")

	over := bytes.Repeat([]byte{0xAB}, MaxFileSize+1)
	_, err = s.SavePaymentProof("ord-6", "huge.png", bytes.NewReader(over))
	assert.ErrorIs(t, err, ErrTooLarge)
}
