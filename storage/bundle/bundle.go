// Package bundle reads and writes deterministic TAR snapshots of published
// content: the blocks a name points into plus the signed records naming
// them. A bundle moves a published site between hosts without re-signing.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Records are signed name records to include. Each record is written
	// under records/<owner name> and re-verified before export; at most one
	// record per name.
	Records []*record.Record
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the blocks for the
// given CIDs and the signed records from opts.
//
// The bundle bytes are deterministic: entry order is lexicographic within
// each section and TAR headers are normalized. All exported bytes are
// validated, blocks against their CIDs and records against their signatures.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	cidStrings := make([]string, 0, len(uniq))
	for s := range uniq {
		cidStrings = append(cidStrings, s)
	}
	sort.Strings(cidStrings)

	type recEntry struct {
		name string
		raw  []byte
		rec  *record.Record
	}
	recEntries := make([]recEntry, 0, len(opts.Records))
	seenNames := make(map[string]struct{}, len(opts.Records))
	for i, rec := range opts.Records {
		if rec == nil {
			return fmt.Errorf("bundle: nil record at index %d", i)
		}
		if err := rec.Verify(); err != nil {
			return fmt.Errorf("bundle: record %d does not verify: %w", i, err)
		}
		owner, err := rec.Owner()
		if err != nil {
			return fmt.Errorf("bundle: record %d has no owner: %w", i, err)
		}
		n := owner.String()
		if _, dup := seenNames[n]; dup {
			return fmt.Errorf("bundle: duplicate record for %s", n)
		}
		seenNames[n] = struct{}{}
		raw, err := record.Encode(rec)
		if err != nil {
			return err
		}
		recEntries = append(recEntries, recEntry{name: n, raw: raw, rec: rec})
	}
	sort.Slice(recEntries, func(i, j int) bool { return recEntries[i].name < recEntries[j].name })

	tw := tar.NewWriter(w)

	blocks := make([]indexBlock, 0, len(cidStrings))
	for _, s := range cidStrings {
		id := uniq[s]
		b, err := cas.Get(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		got, err := cidutil.SumRaw(b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if got.String() != id.String() {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}

		if err := writeFile(tw, "blocks/"+id.String(), b); err != nil {
			_ = tw.Close()
			return err
		}
		blocks = append(blocks, indexBlock{CID: id.String(), Size: len(b)})
	}

	records := make([]indexRecord, 0, len(recEntries))
	for _, e := range recEntries {
		if err := writeFile(tw, "records/"+e.name, e.raw); err != nil {
			_ = tw.Close()
			return err
		}
		records = append(records, indexRecord{
			Name:     e.name,
			Value:    e.rec.Value.String(),
			Sequence: e.rec.Sequence,
		})
	}

	if opts.IncludeIndex {
		idx := indexJSON{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			Blocks:    blocks,
			Records:   records,
		}
		b, err := marshalIndexJSON(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, "index.json", b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return
	// an error.
	IgnoreUnknown bool
}

// Snapshot is the validated outcome of an import: the records carried by the
// bundle, sorted by owner name, and the blocks that were written to the CAS,
// sorted by CID.
type Snapshot struct {
	Blocks  []cid.Cid
	Records []*record.Record
}

// Import reads a bundle from r, writes all blocks into cas and returns the
// validated records. Records are checked for signature and owner binding,
// not expiry; republishing through a routing backend re-applies the expiry
// rules.
func Import(r io.Reader, cas storage.CAS) (*Snapshot, error) {
	return ImportWithOptions(r, cas, ImportOptions{})
}

// ImportWithOptions is Import with explicit options.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) (*Snapshot, error) {
	if cas == nil {
		return nil, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seenBlocks := map[string]struct{}{}
	seenRecords := map[string]struct{}{}
	var blocks []cid.Cid
	var recs []*record.Record

	for {
		h, err := tr.Next()
		if err == io.EOF {
			sort.Slice(blocks, func(i, j int) bool {
				return blocks[i].String() < blocks[j].String()
			})
			sort.Slice(recs, func(i, j int) bool {
				a, _ := recs[i].Owner()
				b, _ := recs[j].Owner()
				return a.String() < b.String()
			})
			return &Snapshot{Blocks: blocks, Records: recs}, nil
		}
		if err != nil {
			return nil, err
		}
		entry := cleanTarPath(h.Name)
		if entry == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, entry)
		}

		switch {
		case entry == "index.json":
			// Non-authoritative metadata.
			_, _ = io.Copy(io.Discard, tr)

		case strings.HasPrefix(entry, "blocks/"):
			cidStr := strings.TrimPrefix(entry, "blocks/")
			id, derr := cid.Decode(cidStr)
			if derr != nil || !id.Defined() {
				return nil, storage.ErrInvalidCID
			}

			payload, rerr := io.ReadAll(tr)
			if rerr != nil {
				return nil, rerr
			}
			got, herr := cidutil.SumRaw(payload)
			if herr != nil {
				return nil, herr
			}
			if got.String() != id.String() {
				return nil, storage.ErrCIDMismatch
			}

			if _, ok := seenBlocks[id.String()]; ok {
				return nil, fmt.Errorf("bundle: duplicate block entry: %s", id)
			}
			seenBlocks[id.String()] = struct{}{}

			putID, perr := cas.Put(payload)
			if perr != nil {
				return nil, perr
			}
			if putID.String() != id.String() {
				return nil, storage.ErrCIDMismatch
			}
			blocks = append(blocks, id)

		case strings.HasPrefix(entry, "records/"):
			nameStr := strings.TrimPrefix(entry, "records/")
			n, nerr := name.Parse(nameStr)
			if nerr != nil {
				return nil, fmt.Errorf("bundle: record entry %q: %w", entry, nerr)
			}

			payload, rerr := io.ReadAll(tr)
			if rerr != nil {
				return nil, rerr
			}
			rec, derr := record.Decode(payload)
			if derr != nil {
				return nil, fmt.Errorf("bundle: record entry %q: %w", entry, derr)
			}
			if verr := rec.VerifyOwner(n); verr != nil {
				return nil, fmt.Errorf("bundle: record entry %q: %w", entry, verr)
			}

			if _, ok := seenRecords[n.String()]; ok {
				return nil, fmt.Errorf("bundle: duplicate record entry: %s", n)
			}
			seenRecords[n.String()] = struct{}{}
			recs = append(recs, rec)

		default:
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return nil, fmt.Errorf("bundle: unknown entry: %s", entry)
		}
	}
}

type indexJSON struct {
	Version   int           `json:"version"`
	CIDCodec  string        `json:"cidCodec"`
	Multihash string        `json:"multihash"`
	Blocks    []indexBlock  `json:"blocks"`
	Records   []indexRecord `json:"records,omitempty"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexRecord struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Sequence uint64 `json:"sequence"`
}

func marshalIndexJSON(idx indexJSON) ([]byte, error) {
	// indexJSON is composed only of structs + slices; encoding/json is
	// deterministic over it.
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}
