package securestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	fileSaltSize = 16
	fileKeyInfo  = "session-gate secret store v1"
)

// File is a Store persisted as one sealed file: salt | nonce | ciphertext.
// The sealed payload is a JSON object of all keys. Each write reseals the
// whole file under a fresh salt and nonce and replaces it atomically.
type File struct {
	path       string
	passphrase []byte

	mu sync.Mutex
}

// NewFile returns a store backed by path. The file is created on first write.
func NewFile(path, passphrase string) (*File, error) {
	if path == "" {
		return nil, errors.New("securestore: file path required")
	}
	if passphrase == "" {
		return nil, errors.New("securestore: passphrase required")
	}
	return &File{path: path, passphrase: []byte(passphrase)}, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, unavailable("get", key, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, unavailable("get", key, err)
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.update(ctx, "set", key, func(values map[string]string) bool {
		values[key] = value
		return true
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.update(ctx, "delete", key, func(values map[string]string) bool {
		if _, ok := values[key]; !ok {
			return false
		}
		delete(values, key)
		return true
	})
}

func (f *File) update(ctx context.Context, op, key string, mutate func(map[string]string) bool) error {
	if err := ctx.Err(); err != nil {
		return unavailable(op, key, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return unavailable(op, key, err)
	}
	if !mutate(values) {
		return nil
	}
	if err := f.save(values); err != nil {
		return unavailable(op, key, err)
	}
	return nil
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(raw) < fileSaltSize+chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed file truncated")
	}
	salt := raw[:fileSaltSize]
	nonce := raw[fileSaltSize : fileSaltSize+chacha20poly1305.NonceSizeX]
	sealed := raw[fileSaltSize+chacha20poly1305.NonceSizeX:]

	aead, err := f.sealer(salt)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("decode sealed file: %w", err)
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}

	header := make([]byte, fileSaltSize+chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return err
	}
	aead, err := f.sealer(header[:fileSaltSize])
	if err != nil {
		return err
	}
	out := aead.Seal(header, header[fileSaltSize:], plain, nil)

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".secrets-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) sealer(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, f.passphrase, salt, []byte(fileKeyInfo)), key); err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
