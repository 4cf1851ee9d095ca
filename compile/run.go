// Package compile implements compile sub-command: it finds GSS sources,
// decides what has changed since previous run and compiles it in order.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gssc/config"
	"gssc/css"
	"gssc/gss"
	"gssc/project"
	"gssc/state"
)

func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	env.Force, env.Reset, env.NoDirs = cmd.Bool("force"), cmd.Bool("reset"), cmd.Bool("nodirs")
	if to := cmd.String("to"); len(to) > 0 {
		format, err := config.ParseOutputFmt(to)
		if err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", env.OutputFormat()))
		} else {
			env.Format = &format
		}
	}

	roots := cmd.Args().Slice()
	if len(roots) == 0 {
		roots = env.Cfg.Compiler.Sources
	}
	if len(roots) == 0 {
		return errors.New("no input sources have been specified")
	}

	log.Info("Processing starting", zap.Strings("sources", roots), zap.String("destination", env.Cfg.Compiler.Output), zap.Stringer("format", env.OutputFormat()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, env, roots, log)
}

// process does a single run independently of CLI framework.
func process(ctx context.Context, env *state.LocalEnv, roots []string, log *zap.Logger) (err error) {
	cfg := &env.Cfg.Compiler
	format := env.OutputFormat()

	st, err := project.LoadState(cfg.StateFile)
	if err != nil {
		return err
	}
	if exists(cfg.StateFile) {
		if er := env.Rpt.StoreCopy("state/before.json", cfg.StateFile); er != nil {
			log.Warn("Unable to store state file in the report", zap.Error(er))
		}
	}
	if env.Reset {
		log.Info("Dropping collected directives")
		st.Reset()
	}
	if err := st.NewRun(); err != nil {
		return err
	}

	sources, err := project.Scan(ctx, roots, log)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if er := env.Rpt.StoreCopy(filepath.Join("sources", filepath.Base(root)), root); er != nil {
			log.Warn("Unable to store sources in the report", zap.String("source", root), zap.Error(er))
		}
	}

	destination := func(s project.Source) string {
		return project.Destination(s, cfg.Output, format, env.NoDirs, cfg.FileNameTransliterate)
	}
	// without persisted directives every source has to be seen again
	plan := st.Plan(sources, destination, env.Force || env.Reset)

	log.Debug("Run prepared",
		zap.String("run", st.RunID),
		zap.Int("sources", len(sources)),
		zap.Int("compile", len(plan.Tasks)),
		zap.Int("unchanged", len(plan.Unchanged)),
		zap.Int("removed", len(plan.Removed)))

	for _, rec := range plan.Removed {
		log.Info("Source removed", zap.String("source", rec.Source))
		if cfg.RemoveDeleted {
			removeOutput(rec.Destination, log)
		}
		st.Forget(rec.Source)
	}

	var checker *css.Checker
	if cfg.VerifyOutput && format == config.OutputFmtCss {
		checker = css.NewChecker(log)
	}

	var compiled, failed int
	for i, task := range plan.Tasks {
		if er := ctx.Err(); er != nil {
			err = multierr.Append(err, er)
			break
		}
		if er := compileOne(ctx, env, st, i, task, format, checker, log); er != nil {
			if errors.Is(er, context.Canceled) || errors.Is(er, context.DeadlineExceeded) {
				err = multierr.Append(err, er)
				break
			}
			log.Error("Unable to compile source", zap.String("source", task.Source.Identity), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("%s: %w", task.Source.Identity, er))
			failed++
			continue
		}
		if task.Previous != "" && cfg.RemoveDeleted {
			removeOutput(task.Previous, log)
		}
		compiled++
	}

	if er := st.Save(cfg.StateFile); er != nil {
		err = multierr.Append(err, er)
	} else if er := env.Rpt.StoreCopy("state/after.json", cfg.StateFile); er != nil {
		log.Warn("Unable to store state file in the report", zap.Error(er))
	}
	env.Rpt.StoreData("dump/store.txt", []byte(gss.DumpStore(st.Store)))

	log.Info("Run summary",
		zap.Int("compiled", compiled),
		zap.Int("failed", failed),
		zap.Int("unchanged", len(plan.Unchanged)),
		zap.Int("removed", len(plan.Removed)))
	return err
}

// compileOne compiles single source on a copy of directive tables. Copy
// becomes current only when output has been written, so failed source is
// retried next time with the same directives.
func compileOne(ctx context.Context, env *state.LocalEnv, st *project.State, n int, task project.Task, format config.OutputFmt, checker *css.Checker, log *zap.Logger) error {
	src := task.Source
	log.Debug("Compiling source", zap.String("source", src.Identity), zap.String("reason", string(task.Reason)))

	data, err := src.Read()
	if err != nil {
		return err
	}
	text, err := project.DecodeSource(data)
	if err != nil {
		return err
	}

	store := st.Store.Clone()
	c := gss.NewCompiler(store, log, gss.WithMergeExtends(env.Cfg.Compiler.MergeExtends))
	res, err := c.CompileString(ctx, src.Identity, text)
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case config.OutputFmtCss:
		out = []byte(res.CSS() + "\n")
		if checker != nil {
			sum := checker.Check(out, task.Destination)
			log.Debug("Output verified",
				zap.String("destination", task.Destination),
				zap.Int("rules", sum.Rules),
				zap.Int("at-rules", sum.AtRules),
				zap.Int("declarations", sum.Declarations),
				zap.Int("warnings", len(sum.Warnings)))
		}
	case config.OutputFmtJson:
		if out, err = res.JSON(); err != nil {
			return fmt.Errorf("unable to encode blocks: %w", err)
		}
		out = append(out, '\n')
	default:
		// this should never happen
		panic(fmt.Sprintf("unsupported output format %s", format))
	}

	if err := writeOutput(task.Destination, out); err != nil {
		return err
	}
	st.Commit(src, task.Destination, store)

	env.Rpt.StoreData(fmt.Sprintf("dump/%04d-%s.txt", n, filepath.Base(src.Rel)), []byte(gss.Dump(res.Blocks)))
	if len(res.Diagnostics) > 0 {
		log.Info("Source compiled with warnings", zap.String("source", src.Identity), zap.Int("warnings", len(res.Diagnostics)))
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

func removeOutput(path string, log *zap.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Unable to remove output", zap.String("destination", path), zap.Error(err))
		return
	}
	log.Debug("Output removed", zap.String("destination", path))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
