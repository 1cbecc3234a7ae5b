package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neovate-digital/namesys/name"
)

// Store is a local filesystem keystore.
//
// Layout: one directory per key name, holding root.key (hex seed, mode
// 0600) and labels/<label>.key for derived subkeys. Key names and labels
// share a conservative charset so they stay safe as path segments.
type Store struct {
	Directory string
}

// Entry describes one stored key and its derived labels.
type Entry struct {
	Name   string
	Labels []string
}

// DefaultDirectory returns the per-user keystore location.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".namesys", "keys"), nil
}

// Open returns a keystore over directory, falling back to
// DefaultDirectory when directory is empty. The directory is created
// lazily on first write.
func Open(directory string) (*Store, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Directory: directory}, nil
}

func (s *Store) rootKeyPath(keyName string) string {
	return filepath.Join(s.Directory, keyName, "root.key")
}

func (s *Store) labelKeyPath(keyName, label string) string {
	return filepath.Join(s.Directory, keyName, "labels", label+".key")
}

// CheckName validates a keystore key name.
func CheckName(keyName string) error {
	if keyName == "" {
		return errors.New("keys: key name cannot be empty")
	}
	for _, char := range keyName {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("keys: invalid character %q in key name", char)
	}
	return nil
}

// CheckLabel validates a derivation label.
func CheckLabel(label string) error {
	if label == "" {
		return errors.New("keys: label cannot be empty")
	}
	for _, char := range label {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("keys: invalid character %q in label", char)
	}
	return nil
}

// ParseSeedHex parses a 32-byte hex seed, tolerating whitespace and an 0x
// prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (s *Store) saveSeed(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("keys: expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (s *Store) loadSeed(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitRoot stores seed as the root key for keyName and returns the derived
// identity. Without overwrite, an existing root key is an error.
func (s *Store) InitRoot(keyName string, seed []byte, overwrite bool) (name.Name, string, error) {
	if err := CheckName(keyName); err != nil {
		return name.Name{}, "", err
	}
	kp, err := name.KeyPairFromSeed(seed)
	if err != nil {
		return name.Name{}, "", err
	}
	filePath := s.rootKeyPath(keyName)
	if err := s.saveSeed(filePath, seed, overwrite); err != nil {
		return name.Name{}, "", err
	}
	return kp.Name(), filePath, nil
}

// DeriveLabel derives and stores the subkey for label under keyName's root
// seed, returning the subkey's identity.
func (s *Store) DeriveLabel(keyName, label string, overwrite bool) (name.Name, string, error) {
	if err := CheckName(keyName); err != nil {
		return name.Name{}, "", err
	}
	if err := CheckLabel(label); err != nil {
		return name.Name{}, "", err
	}
	rootSeed, err := s.loadSeed(s.rootKeyPath(keyName))
	if err != nil {
		return name.Name{}, "", err
	}
	labelSeed, err := DeriveLabelSeed(rootSeed, label)
	if err != nil {
		return name.Name{}, "", err
	}
	kp, err := name.KeyPairFromSeed(labelSeed)
	if err != nil {
		return name.Name{}, "", err
	}
	filePath := s.labelKeyPath(keyName, label)
	if err := s.saveSeed(filePath, labelSeed, overwrite); err != nil {
		return name.Name{}, "", err
	}
	return kp.Name(), filePath, nil
}

// KeyPair loads the key pair for keyName, or its label subkey when label is
// non-empty.
func (s *Store) KeyPair(keyName, label string) (*name.KeyPair, error) {
	if err := CheckName(keyName); err != nil {
		return nil, err
	}
	path := s.rootKeyPath(keyName)
	if label != "" {
		if err := CheckLabel(label); err != nil {
			return nil, err
		}
		path = s.labelKeyPath(keyName, label)
	}
	seed, err := s.loadSeed(path)
	if err != nil {
		return nil, err
	}
	return name.KeyPairFromSeed(seed)
}

// ResolveKeyPair loads a key pair from the first source provided: an inline
// hex seed, an explicit seed file, or a stored keyName (+ optional label).
// CLI flags map onto it directly.
func (s *Store) ResolveKeyPair(seedHex, keyName, label, keyFile string) (*name.KeyPair, error) {
	if seedHex != "" {
		seed, err := ParseSeedHex(seedHex)
		if err != nil {
			return nil, err
		}
		return name.KeyPairFromSeed(seed)
	}
	if keyFile != "" {
		seed, err := s.loadSeed(keyFile)
		if err != nil {
			return nil, err
		}
		return name.KeyPairFromSeed(seed)
	}
	if keyName != "" {
		return s.KeyPair(keyName, label)
	}
	return nil, errors.New("keys: no key source provided")
}

// List enumerates stored keys and their labels, sorted.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []Entry
	for _, keyName := range names {
		labelsDir := filepath.Join(s.Directory, keyName, "labels")
		labelEntries, lerr := os.ReadDir(labelsDir)
		var labels []string
		if lerr == nil {
			for _, le := range labelEntries {
				if le.IsDir() {
					continue
				}
				if strings.HasSuffix(le.Name(), ".key") {
					labels = append(labels, strings.TrimSuffix(le.Name(), ".key"))
				}
			}
			sort.Strings(labels)
		}
		result = append(result, Entry{Name: keyName, Labels: labels})
	}
	return result, nil
}
