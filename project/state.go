// Package project keeps track of GSS sources between runs: what has to be
// compiled, where results go and what directives were collected so far.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	"gssc/gss"
)

// Record is what is remembered about compiled source.
type Record struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Marker      string `json:"marker"`
}

// State is persisted between runs. Directive tables are kept together with
// file records since unchanged sources are not compiled again and their
// directives must still be visible to the changed ones.
type State struct {
	RunID string            `json:"run_id"`
	Files map[string]Record `json:"files"`
	*gss.Store
}

func newState() *State {
	return &State{Files: make(map[string]Record), Store: gss.NewStore()}
}

// LoadState reads state file. Missing file gives empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read state file: %w", err)
	}
	st := newState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("unable to decode state file %s: %w", path, err)
	}
	if st.Files == nil {
		st.Files = make(map[string]Record)
	}
	if st.Store == nil {
		st.Store = gss.NewStore()
	}
	// tables missing from the file
	st.Store = st.Store.Clone()
	return st, nil
}

// Save writes state atomically.
func (st *State) Save(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create state directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("unable to save state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save state: %w", err)
	}
	return nil
}

// NewRun marks beginning of a new compilation run.
func (st *State) NewRun() error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("unable to generate run id: %w", err)
	}
	st.RunID = id.String()
	return nil
}

// Reset drops collected directives, file records are kept.
func (st *State) Reset() {
	st.Store.Reset()
}

// Commit records successfully compiled source and makes directive tables
// collected while compiling it current.
func (st *State) Commit(src Source, destination string, store *gss.Store) {
	st.Files[src.Identity] = Record{Source: src.Identity, Destination: destination, Marker: src.Marker}
	st.Store = store
}

// Forget drops record of the source.
func (st *State) Forget(identity string) {
	delete(st.Files, identity)
}

// Identities returns known sources in natural order.
func (st *State) Identities() []string {
	keys := slices.Collect(maps.Keys(st.Files))
	sort.Sort(natural.StringSlice(keys))
	return keys
}
