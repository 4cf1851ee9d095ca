package state

import (
	"time"

	"gssc/config"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// OutputFormat returns format requested on command line or configured one.
func (e *LocalEnv) OutputFormat() config.OutputFmt {
	if e.Format != nil {
		return *e.Format
	}
	if e.Cfg != nil {
		return e.Cfg.Compiler.Format
	}
	return config.OutputFmtCss
}
