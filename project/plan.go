package project

import (
	"errors"
	"io/fs"
	"os"
)

// Reason explains why source has to be compiled.
type Reason string

const (
	ReasonNew       Reason = "new"
	ReasonChanged   Reason = "changed"
	ReasonMoved     Reason = "destination changed"
	ReasonMissing   Reason = "output missing"
	ReasonForced    Reason = "forced"
	ReasonUnchanged Reason = ""
)

// Task is a single source scheduled for compilation.
type Task struct {
	Source      Source
	Destination string
	Reason      Reason
	// Previous destination when it differs from the current one.
	Previous string
}

// Plan is outcome of comparing discovered sources with the state.
type Plan struct {
	Tasks     []Task
	Unchanged []Source
	// Removed are records of sources which are gone.
	Removed []Record
}

// Plan decides which sources have to be compiled. Order of sources is kept.
func (st *State) Plan(sources []Source, destination func(Source) string, force bool) *Plan {
	plan := &Plan{}
	present := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		present[src.Identity] = struct{}{}
		dst := destination(src)
		rec, known := st.Files[src.Identity]

		task := Task{Source: src, Destination: dst}
		switch {
		case force:
			task.Reason = ReasonForced
		case !known:
			task.Reason = ReasonNew
		case rec.Marker != src.Marker:
			task.Reason = ReasonChanged
		case rec.Destination != dst:
			task.Reason = ReasonMoved
		case !exists(dst):
			task.Reason = ReasonMissing
		}
		if known && rec.Destination != dst {
			task.Previous = rec.Destination
		}
		if task.Reason == ReasonUnchanged {
			plan.Unchanged = append(plan.Unchanged, src)
			continue
		}
		plan.Tasks = append(plan.Tasks, task)
	}
	for _, id := range st.Identities() {
		if _, ok := present[id]; !ok {
			plan.Removed = append(plan.Removed, st.Files[id])
		}
	}
	return plan
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
