// gssdump compiles single GSS file and prints resolved block tree, CSS and
// diagnostics. Directive tables could be preloaded from state file left by
// previous compile run, so file using directives declared elsewhere resolves
// the same way it does during the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gssc/gss"
	"gssc/project"
)

func main() {
	var (
		stateFile = flag.String("state", "", "preload directive tables from state `FILE`")
		merge     = flag.Bool("merge", false, "merge properties of extended selectors")
		store     = flag.Bool("store", false, "print directive tables after compilation")
	)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "usage: gssdump [flags] <file.gss>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *stateFile, *merge, *store); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gssdump: %v\n", err)
		os.Exit(1)
	}
}

func run(path, stateFile string, merge, printStore bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text, err := project.DecodeSource(data)
	if err != nil {
		return err
	}

	s := gss.NewStore()
	if stateFile != "" {
		st, err := project.LoadState(stateFile)
		if err != nil {
			return err
		}
		s = st.Store
	}

	res, err := gss.NewCompiler(s, nil, gss.WithMergeExtends(merge)).CompileString(context.Background(), path, text)
	if err != nil {
		return err
	}

	fmt.Println(gss.Dump(res.Blocks))
	fmt.Println()
	fmt.Println(res.CSS())
	if len(res.Diagnostics) > 0 {
		fmt.Println()
		for _, d := range res.Diagnostics {
			fmt.Println(d)
		}
	}
	if printStore {
		fmt.Println()
		fmt.Println(gss.DumpStore(s))
	}
	return nil
}
