// Package file provides file-based persistence backed by JSON documents.
// Intended for development and tests; one document per record.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root           string
	workflowRepo   *WorkflowRepository
	executionRepo  *ExecutionRepository
	automationRepo *AutomationRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" URL prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		workflowRepo:   &WorkflowRepository{store: docStore{dir: filepath.Join(cleanRoot, "workflows")}},
		executionRepo:  &ExecutionRepository{store: docStore{dir: filepath.Join(cleanRoot, "executions")}},
		automationRepo: &AutomationRepository{store: docStore{dir: filepath.Join(cleanRoot, "automations")}},
		scheduleRepo:   &ScheduleRepository{store: docStore{dir: filepath.Join(cleanRoot, "schedules")}},
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automationRepo
}

func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return p.scheduleRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// docStore stores one JSON document per id under a directory.
type docStore struct {
	dir string
}

func (s docStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s docStore) save(id string, doc any) error {
	err := os.MkdirAll(s.dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	return os.WriteFile(s.path(id), raw, 0o644)
}

func (s docStore) load(id string, doc any) error {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fs.ErrNotExist
		}

		return fmt.Errorf("failed to read document %s: %w", id, err)
	}

	return json.Unmarshal(raw, doc)
}

func (s docStore) delete(id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fs.ErrNotExist
	}

	return err
}

// ids returns the document ids present in the store, unordered.
func (s docStore) ids() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
