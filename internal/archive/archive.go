// Package archive exports and restores dataset snapshots through a blob
// store. Each archive is a single JSON document holding a manifest and the
// serialized rows of every kind, keyed as snapshots/<id>.json.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"latticecore/internal/blob"
	"latticecore/pkg/record"
)

const keyPrefix = "snapshots/"

// Manifest describes one stored archive.
type Manifest struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Owner     string              `json:"owner,omitempty"`
	Comment   string              `json:"comment,omitempty"`
	Counts    map[record.Kind]int `json:"counts,omitempty"`
}

// TotalRows sums the per-kind row counts.
func (m Manifest) TotalRows() int {
	total := 0
	for _, n := range m.Counts {
		total += n
	}
	return total
}

type document struct {
	Manifest Manifest                          `json:"manifest"`
	Rows     map[record.Kind][]json.RawMessage `json:"rows,omitempty"`
}

// Archiver reads and writes snapshot archives.
type Archiver struct {
	blobs blob.Store
	now   func() time.Time
}

// New returns an Archiver over the given blob store. A nil now uses the
// system clock.
func New(blobs blob.Store, now func() time.Time) *Archiver {
	if now == nil {
		now = time.Now
	}
	return &Archiver{blobs: blobs, now: now}
}

func keyFor(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid archive id %q: %w", id, err)
	}
	return keyPrefix + id + ".json", nil
}

// Export writes the snapshot as a new archive and returns its manifest.
func (a *Archiver) Export(ctx context.Context, snap *record.Snapshot, owner, comment string) (Manifest, error) {
	manifest := Manifest{
		ID:        uuid.NewString(),
		CreatedAt: a.now().UTC(),
		Owner:     owner,
		Comment:   comment,
		Counts:    map[record.Kind]int{},
	}
	doc := document{Manifest: manifest, Rows: map[record.Kind][]json.RawMessage{}}
	for _, kind := range record.Kinds() {
		rows := snap.Rows(kind)
		if len(rows) == 0 {
			continue
		}
		encoded := make([]json.RawMessage, 0, len(rows))
		for _, row := range rows {
			payload, err := record.MarshalRow(row)
			if err != nil {
				return Manifest{}, fmt.Errorf("export archive: encode %s row: %w", kind, err)
			}
			encoded = append(encoded, payload)
		}
		doc.Rows[kind] = encoded
		manifest.Counts[kind] = len(rows)
	}
	doc.Manifest = manifest
	body, err := json.Marshal(doc)
	if err != nil {
		return Manifest{}, fmt.Errorf("export archive: %w", err)
	}
	key, err := keyFor(manifest.ID)
	if err != nil {
		return Manifest{}, err
	}
	opts := blob.PutOptions{ContentType: "application/json"}
	if owner != "" {
		opts.Metadata = map[string]string{"owner": owner}
	}
	if _, err := a.blobs.Put(ctx, key, bytes.NewReader(body), opts); err != nil {
		return Manifest{}, fmt.Errorf("export archive: %w", err)
	}
	return manifest, nil
}

// Import loads an archive and rebuilds its snapshot.
func (a *Archiver) Import(ctx context.Context, id string) (Manifest, *record.Snapshot, error) {
	doc, err := a.load(ctx, id)
	if err != nil {
		return Manifest{}, nil, err
	}
	snap := record.NewSnapshot()
	for kind, payloads := range doc.Rows {
		if !kind.Valid() {
			return Manifest{}, nil, fmt.Errorf("import archive %s: unknown record kind %q", id, kind)
		}
		for _, payload := range payloads {
			row, err := record.UnmarshalRow(kind, payload)
			if err != nil {
				return Manifest{}, nil, fmt.Errorf("import archive %s: decode %s row: %w", id, kind, err)
			}
			snap.Insert(row)
		}
	}
	return doc.Manifest, snap, nil
}

// Manifest fetches an archive's manifest without rebuilding rows.
func (a *Archiver) Manifest(ctx context.Context, id string) (Manifest, error) {
	doc, err := a.load(ctx, id)
	if err != nil {
		return Manifest{}, err
	}
	return doc.Manifest, nil
}

// List returns the manifests of all stored archives, newest first.
func (a *Archiver) List(ctx context.Context) ([]Manifest, error) {
	infos, err := a.blobs.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	manifests := make([]Manifest, 0, len(infos))
	for _, info := range infos {
		id := strings.TrimSuffix(strings.TrimPrefix(info.Key, keyPrefix), ".json")
		doc, err := a.load(ctx, id)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, doc.Manifest)
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].CreatedAt.After(manifests[j].CreatedAt) })
	return manifests, nil
}

// Delete removes an archive, reporting whether it existed.
func (a *Archiver) Delete(ctx context.Context, id string) (bool, error) {
	key, err := keyFor(id)
	if err != nil {
		return false, err
	}
	ok, err := a.blobs.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("delete archive %s: %w", id, err)
	}
	return ok, nil
}

// Restore applies an archive's rows to the store as one atomic batch.
// Existing rows with matching ids are overwritten; rows absent from the
// archive are left alone. Callers holding a session should refresh it
// afterwards so the in-memory view picks up the restored rows.
func (a *Archiver) Restore(ctx context.Context, id string, store record.Store) (Manifest, error) {
	manifest, snap, err := a.Import(ctx, id)
	if err != nil {
		return Manifest{}, err
	}
	var batch record.Batch
	for _, kind := range record.Kinds() {
		if rows := snap.Rows(kind); len(rows) > 0 {
			batch.Update(kind, rows...)
		}
	}
	if batch.Empty() {
		return manifest, nil
	}
	if err := store.Apply(ctx, batch); err != nil {
		return Manifest{}, fmt.Errorf("restore archive %s: %w", id, err)
	}
	return manifest, nil
}

func (a *Archiver) load(ctx context.Context, id string) (document, error) {
	key, err := keyFor(id)
	if err != nil {
		return document{}, err
	}
	_, rc, err := a.blobs.Get(ctx, key)
	if err != nil {
		return document{}, fmt.Errorf("load archive %s: %w", id, err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		return document{}, fmt.Errorf("load archive %s: %w", id, err)
	}
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return document{}, fmt.Errorf("load archive %s: %w", id, err)
	}
	return doc, nil
}
