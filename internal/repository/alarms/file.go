package alarms

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sunrise-alarm/internal/config"
	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
)

// FileRepository persists alarm definitions to a YAML file on disk.
// A missing file holds no alarms.
type FileRepository struct {
	// path is the filesystem location of the YAML file.
	path string
	// location is the zone stored instants are reported in.
	location *time.Location
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string, loc *time.Location) *FileRepository {
	if loc == nil {
		loc = time.Local
	}

	return &FileRepository{
		path:     filepath.Clean(path),
		location: loc,
	}
}

// Path returns the location of the alarms file.
func (r *FileRepository) Path() string {
	return r.path
}

// List returns every valid alarm ordered by ID. Invalid records are logged
// and left out.
func (r *FileRepository) List(ctx context.Context) ([]*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}

	defs := make([]*alarm.Definition, 0, len(doc.Alarms))

	for i := range doc.Alarms {
		def, convErr := doc.Alarms[i].toDefinition(r.location)
		if convErr != nil {
			logger.WarnKV(ctx, "Invalid alarm record skipped", "path", r.path, "error", convErr)

			continue
		}

		defs = append(defs, def)
	}

	slices.SortFunc(defs, func(a, b *alarm.Definition) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return defs, nil
}

// EnabledAlarms returns the valid enabled alarms.
func (r *FileRepository) EnabledAlarms(ctx context.Context) ([]*alarm.Definition, error) {
	defs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(defs, func(def *alarm.Definition) bool {
		return !def.Enabled
	}), nil
}

// ByID returns the alarm with the given ID or alarm.ErrNotFound.
func (r *FileRepository) ByID(_ context.Context, id int64) (*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}

	index := doc.index(id)
	if index < 0 {
		return nil, fmt.Errorf("%w: %d", alarm.ErrNotFound, id)
	}

	return doc.Alarms[index].toDefinition(r.location)
}

// Create validates the definition, assigns it the next free ID and stores it.
func (r *FileRepository) Create(ctx context.Context, def *alarm.Definition) (*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}

	created := def.Clone()
	created.ID = doc.nextID()
	created.Label = alarm.SanitizeLabel(created.Label)

	if err = alarm.Validate(created); err != nil {
		return nil, err
	}

	doc.Alarms = append(doc.Alarms, fromDefinition(created))

	if err = r.write(doc); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm created", "alarm_id", created.ID, "label", created.Label)

	return created, nil
}

// UpdateCalculatedTime stores the instant the alarm is armed for. Writing
// the same instant again leaves the file untouched.
func (r *FileRepository) UpdateCalculatedTime(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(rec *record) bool {
		ms := toMillis(at)
		if rec.CalculatedTime == ms {
			return false
		}

		rec.CalculatedTime = ms

		return true
	})
}

// UpdateEnabled switches the alarm on or off.
func (r *FileRepository) UpdateEnabled(_ context.Context, id int64, enabled bool) error {
	return r.update(id, func(rec *record) bool {
		if rec.Enabled == enabled {
			return false
		}

		rec.Enabled = enabled

		return true
	})
}

// Delete removes the alarm.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}

	index := doc.index(id)
	if index < 0 {
		return fmt.Errorf("%w: %d", alarm.ErrNotFound, id)
	}

	doc.Alarms = slices.Delete(doc.Alarms, index, index+1)

	if err = r.write(doc); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm deleted", "alarm_id", id)

	return nil
}

// update applies change to the record of id and writes the file when the
// record was modified.
func (r *FileRepository) update(id int64, change func(rec *record) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}

	index := doc.index(id)
	if index < 0 {
		return fmt.Errorf("%w: %d", alarm.ErrNotFound, id)
	}

	if !change(&doc.Alarms[index]) {
		return nil
	}

	return r.write(doc)
}

// read loads the document. Must be called with mu held.
func (r *FileRepository) read() (*document, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(document), nil
		}

		return nil, fmt.Errorf("read alarms file: %w", err)
	}

	var doc document
	if err = yaml.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode alarms file: %w", err)
	}

	return &doc, nil
}

// write replaces the file atomically. Must be called with mu held.
func (r *FileRepository) write(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create alarms directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary alarms file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write alarms file: %w", err)
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("chmod alarms file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close alarms file: %w", err)
	}

	if err = os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace alarms file: %w", err)
	}

	return nil
}

// index returns the position of the record with the given ID, or -1.
func (d *document) index(id int64) int {
	return slices.IndexFunc(d.Alarms, func(rec record) bool {
		return rec.ID == id
	})
}

// nextID returns one past the highest stored ID.
func (d *document) nextID() int64 {
	var highest int64
	for _, rec := range d.Alarms {
		highest = max(highest, rec.ID)
	}

	return highest + 1
}
