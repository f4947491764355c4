package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
)

// SecureFileStore - хранилище в одном файле, зашифрованном secretbox.
// Ключ выводится из парольной фразы через argon2id, соль лежит в начале файла.
// Формат файла: salt(16) | nonce(24) | secretbox(json map).
type SecureFileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

func NewSecureFileStore(path, passphrase string) *SecureFileStore {
	return &SecureFileStore{path: path, passphrase: []byte(passphrase)}
}

func (s *SecureFileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *SecureFileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

func (s *SecureFileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return s.save(data)
}

func (s *SecureFileStore) deriveKey(salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, 32))
	return &key
}

func (s *SecureFileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("session file %s is truncated", s.path)
	}

	salt := raw[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, s.deriveKey(salt))
	if !ok {
		return nil, fmt.Errorf("session file %s: wrong passphrase or corrupted data", s.path)
	}

	data := map[string]string{}
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return data, nil
}

func (s *SecureFileStore) save(data map[string]string) error {
	plain, err := json.Marshal(data)
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plain, &nonce, s.deriveKey(salt))

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	// пишем во временный файл и переименовываем, чтобы не оставить полузаписанный файл
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
