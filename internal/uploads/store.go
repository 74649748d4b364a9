// Package uploads persists proof images under the static upload directory,
// mirroring the /static/uploads layout the storefront serves.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const MaxFileSize = 5 << 20 // 5MB

var (
	ErrEmptyFile   = errors.New("no file content")
	ErrTooLarge    = errors.New("file exceeds 5MB limit")
	ErrBadFileType = errors.New("invalid file type, allowed: png, jpg, jpeg, gif, webp")
)

var allowedExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

type Store struct {
	Root string // e.g. static/uploads
}

// SavePaymentProof writes the uploaded image to
// {root}/payment_proofs/payment_proof_{orderID}_{ts}.{ext} and returns the
// public path.
func (s *Store) SavePaymentProof(orderID, filename string, r io.Reader) (string, error) {
	return s.save("payment_proofs", "payment_proof", orderID, filename, r)
}

// SaveReceiptProof stores the customer's confirm-receipt photo.
func (s *Store) SaveReceiptProof(orderID, filename string, r io.Reader) (string, error) {
	return s.save("receipts", "receipt_proof", orderID, filename, r)
}

func (s *Store) save(subdir, prefix, orderID, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if filename == "" || !allowedExt[ext] {
		return "", ErrBadFileType
	}

	dir := filepath.Join(s.Root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s%s", prefix, orderID, time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// +1 so an exactly-at-limit file passes and one byte over fails.
	n, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if n == 0 {
		os.Remove(path)
		return "", ErrEmptyFile
	}
	if n > MaxFileSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return "/" + filepath.ToSlash(filepath.Join(s.Root, subdir, name)), nil
}

// Discard removes a previously saved proof whose order update was rejected,
// so rejected uploads leave no file behind. Paths outside the store root are
// ignored.
func (s *Store) Discard(publicPath string) {
	rel := strings.TrimPrefix(publicPath, "/")
	if !strings.HasPrefix(rel, filepath.ToSlash(s.Root)+"/") {
		return
	}
	os.Remove(filepath.FromSlash(rel))
}
