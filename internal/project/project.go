package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/piwi3910/StowPlan/internal/model"
)

const (
	// FileExtension is the conventional suffix of project documents.
	FileExtension = ".clp"
	// FormatVersion is written by tools that have no release version of their own.
	FormatVersion = "1.0.0"
)

var (
	// ErrFormat is returned when a document violates the project format.
	ErrFormat = errors.New("invalid project format")
	// ErrFileLocked is returned when the target file cannot be written.
	ErrFileLocked = errors.New("file is locked or read-only")
)

var semverRe = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-(?:0|[1-9A-Za-z-][0-9A-Za-z-]*)(?:\.(?:0|[1-9A-Za-z-][0-9A-Za-z-]*))*)?` +
	`(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

// saveMu serialises all saves in the process, so auto-save and an explicit
// save never interleave.
var saveMu sync.Mutex

// ValidateVersion checks that v is a semantic version such as 1.2.3-rc.1.
func ValidateVersion(v string) error {
	if !semverRe.MatchString(v) {
		return fmt.Errorf("%w: invalid version %q", ErrFormat, v)
	}
	return nil
}

type document struct {
	Meta       json.RawMessage   `json:"meta"`
	Container  json.RawMessage   `json:"container,omitempty"`
	Containers []json.RawMessage `json:"containers,omitempty"`
	Boxes      []itemDoc         `json:"boxes"`
}

type metaDoc struct {
	CreatedAt string  `json:"created_at"`
	Version   string  `json:"version"`
	User      *string `json:"user"`
}

type containerRef struct {
	ID string `json:"id"`
}

// itemDoc is one entry of the boxes list. A stack row carries the shared
// footprint plus either its members or a count of identical members.
type itemDoc struct {
	Type     string         `json:"type"`
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Length   float64        `json:"length_mm"`
	Width    float64        `json:"width_mm"`
	Height   float64        `json:"height_mm"`
	Weight   float64        `json:"weight_kg"`
	Color    string         `json:"color_hex"`
	X        float64        `json:"pos_x_mm"`
	Y        float64        `json:"pos_y_mm"`
	Rotation model.Rotation `json:"rot_deg"`
	Count    int            `json:"count,omitempty"`
	Snap     float64        `json:"snap_tolerance_mm,omitempty"`
	Members  []memberDoc    `json:"members,omitempty"`
}

type memberDoc struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Height float64 `json:"height_mm"`
	Weight float64 `json:"weight_kg"`
	Color  string  `json:"color_hex"`
}

const (
	itemTypeBox   = "box"
	itemTypeStack = "stack"
)

// LoadProject reads a project document. The container is resolved by ID in
// catalog; a nil catalog uses the built-in definitions.
func LoadProject(path string, catalog *Catalog) (*model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := DecodeProject(data, catalog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = trimExt(filepath.Base(path))
	}
	return p, nil
}

// DecodeProject parses a project document from memory.
func DecodeProject(data []byte, catalog *Catalog) (*model.Project, error) {
	if catalog == nil {
		catalog = NewCatalog("")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	meta, err := decodeMeta(doc.Meta)
	if err != nil {
		return nil, err
	}

	rawContainer := doc.Container
	if len(rawContainer) == 0 && len(doc.Containers) == 1 {
		rawContainer = doc.Containers[0]
	}
	var ref containerRef
	if !isObject(rawContainer) || json.Unmarshal(rawContainer, &ref) != nil {
		return nil, fmt.Errorf("%w: 'container' must be an object", ErrFormat)
	}
	container, err := catalog.Get(ref.ID)
	if err != nil {
		return nil, err
	}

	p := model.NewProject("", container)
	p.SetMeta(meta)
	for i, row := range doc.Boxes {
		it, err := decodeItem(row)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrFormat, i+1, err)
		}
		if err := p.Add(it); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodeMeta(raw json.RawMessage) (model.ProjectMeta, error) {
	var m metaDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return model.ProjectMeta{}, fmt.Errorf("%w: 'meta' must be an object: %v", ErrFormat, err)
		}
	}
	if err := ValidateVersion(m.Version); err != nil {
		return model.ProjectMeta{}, err
	}
	created, err := parseTimestamp(m.CreatedAt)
	if err != nil {
		return model.ProjectMeta{}, err
	}
	if m.User == nil {
		return model.ProjectMeta{}, fmt.Errorf("%w: 'meta.user' is missing", ErrFormat)
	}
	return model.ProjectMeta{CreatedAt: created, Version: m.Version, User: *m.User}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 timestamps. A missing zone means UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrFormat, s)
}

func decodeItem(row itemDoc) (model.Item, error) {
	switch row.Type {
	case itemTypeBox:
		b := rowBox(row, row.ID, row.Name, row.Height, row.Weight, row.Color)
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b, nil
	case itemTypeStack:
		return decodeStack(row)
	default:
		return nil, fmt.Errorf("unknown item type %q", row.Type)
	}
}

func decodeStack(row itemDoc) (*model.Stack, error) {
	var boxes []*model.Box
	switch {
	case len(row.Members) > 0:
		if row.Count != 0 && row.Count != len(row.Members) {
			return nil, fmt.Errorf("stack %q: count %d does not match %d members", row.Name, row.Count, len(row.Members))
		}
		for _, m := range row.Members {
			boxes = append(boxes, rowBox(row, m.ID, m.Name, m.Height, m.Weight, m.Color))
		}
	case row.Count > 0:
		for i := 1; i <= row.Count; i++ {
			boxes = append(boxes, rowBox(row, "", fmt.Sprintf("%s_%d", row.Name, i), row.Height, row.Weight, row.Color))
		}
	default:
		return nil, fmt.Errorf("stack %q has no boxes", row.Name)
	}
	s, err := model.NewStack(row.Name, boxes...)
	if err != nil {
		return nil, err
	}
	if row.Snap > 0 {
		s.SnapTolerance = row.Snap
	}
	return s, nil
}

func rowBox(row itemDoc, id, name string, height, weight float64, color string) *model.Box {
	if id == "" {
		id = uuid.New().String()[:8]
	}
	if color == "" {
		color = model.DefaultColor
	}
	return &model.Box{
		ID:       id,
		Name:     name,
		Length:   row.Length,
		Width:    row.Width,
		Height:   height,
		Weight:   weight,
		Color:    color,
		X:        row.X,
		Y:        row.Y,
		Rotation: row.Rotation,
	}
}

// EncodeProject serialises p as an indented project document.
func EncodeProject(p *model.Project) ([]byte, error) {
	meta := p.Meta()
	user := meta.User
	metaRaw, err := json.Marshal(metaDoc{
		CreatedAt: meta.CreatedAt.UTC().Format(time.RFC3339Nano),
		Version:   meta.Version,
		User:      &user,
	})
	if err != nil {
		return nil, err
	}
	containerRaw, err := json.Marshal(p.Container)
	if err != nil {
		return nil, err
	}

	doc := document{Meta: metaRaw, Container: containerRaw, Boxes: []itemDoc{}}
	for _, it := range p.Items() {
		row, err := encodeItem(it)
		if err != nil {
			return nil, err
		}
		doc.Boxes = append(doc.Boxes, row)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func encodeItem(it model.Item) (itemDoc, error) {
	switch v := it.(type) {
	case *model.Box:
		return itemDoc{
			Type:     itemTypeBox,
			ID:       v.ID,
			Name:     v.Name,
			Length:   v.Length,
			Width:    v.Width,
			Height:   v.Height,
			Weight:   v.Weight,
			Color:    v.Color,
			X:        v.X,
			Y:        v.Y,
			Rotation: v.Rotation,
		}, nil
	case *model.Stack:
		ref := v.Reference()
		if ref == nil {
			return itemDoc{}, fmt.Errorf("%w: stack %q has no boxes", model.ErrInvalidInput, v.Name)
		}
		row := itemDoc{
			Type:     itemTypeStack,
			Name:     v.Name,
			Length:   ref.Length,
			Width:    ref.Width,
			Height:   ref.Height,
			Weight:   ref.Weight,
			Color:    ref.Color,
			X:        ref.X,
			Y:        ref.Y,
			Rotation: ref.Rotation,
			Count:    v.BoxCount(),
			Snap:     v.SnapTolerance,
		}
		for _, b := range v.Boxes() {
			row.Members = append(row.Members, memberDoc{
				ID:     b.ID,
				Name:   b.Name,
				Height: b.Height,
				Weight: b.Weight,
				Color:  b.Color,
			})
		}
		return row, nil
	default:
		return itemDoc{}, fmt.Errorf("%w: unsupported item %T", model.ErrInvalidInput, it)
	}
}

// SaveProject writes p to path atomically. The metadata is refreshed with
// the current time, user and version before writing.
func SaveProject(path string, p *model.Project, user, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	saveMu.Lock()
	defer saveMu.Unlock()

	if err := ensureWritable(path); err != nil {
		return err
	}

	p.SetMeta(model.ProjectMeta{
		CreatedAt: time.Now().UTC(),
		Version:   version,
		User:      user,
	})
	data, err := EncodeProject(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return atomicWrite(path, data)
}

// ensureWritable fails with ErrFileLocked when an existing target cannot be
// opened for writing. For a new file the parent directory must exist.
func ensureWritable(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrFileLocked, path)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrFileLocked, path, err)
		}
		return f.Close()
	}
	if !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(path)
	dinfo, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !dinfo.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrFileLocked, dir)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileLocked, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrFileLocked, err)
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
