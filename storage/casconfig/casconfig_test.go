package casconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/neovate-digital/namesys/storage/casregistry"

	_ "github.com/neovate-digital/namesys/storage/localfs"
	_ "github.com/neovate-digital/namesys/storage/memory"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, true},
		{"missing name", Config{Backends: []BackendConfig{{}}}, true},
		{"duplicate id", Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory"}}}, true},
		{"duplicate resolved by alias", Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory", ID: "second"}}}, false},
		{"bad policy", Config{WritePolicy: "quorum", Backends: []BackendConfig{{Name: "memory"}}}, true},
		{"ok", Config{WritePolicy: "first", Backends: []BackendConfig{{Name: "memory"}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate: err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFile_OpensConfiguredStores(t *testing.T) {
	dir := t.TempDir()
	blocksDir := filepath.Join(dir, "blocks")
	cfgPath := filepath.Join(dir, "stores.json")
	cfgJSON := fmt.Sprintf(`{
  "write_policy": "all",
  "backends": [
    {"name":"memory"},
    {"name":"localfs", "config":{"localfs-dir":%q}}
  ]
}`, blocksDir)
	if err := os.WriteFile(cfgPath, []byte(cfgJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	cas, closeFn, err := cfg.Open(casregistry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()

	payload := []byte("configured block")
	id, err := cas.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Get bytes mismatch")
	}

	// write_policy all reaches the filesystem store too.
	entries, err := os.ReadDir(blocksDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("localfs store is empty after a replicated Put")
	}
}

func TestOpen_PreferredStoreLeadsReads(t *testing.T) {
	cfg := Config{
		WritePolicy: "first",
		Backends: []BackendConfig{
			{Name: "memory"},
			{Name: "memory", ID: "second"},
		},
	}
	cas, closeFn, err := cfg.Open(casregistry.UsageCLI, "second")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = closeFn() }()

	// With write_policy first, writes land on the preferred store only.
	payload := []byte("preferred block")
	id, err := cas.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !cas.Has(id) {
		t.Fatalf("Has(%s) = false after Put", id)
	}
}

func TestOpen_UnknownPreferredStore(t *testing.T) {
	cfg := Config{Backends: []BackendConfig{{Name: "memory"}}}
	if _, _, err := cfg.Open(casregistry.UsageCLI, "s3"); err == nil {
		t.Fatalf("Open with unknown preferred store should fail")
	}
}

func TestLoadFile_EmptyPath(t *testing.T) {
	if _, err := LoadFile(""); err == nil {
		t.Fatalf("LoadFile with empty path should fail")
	}
}
