package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/bsplight/internal/logger"
	"github.com/Faultbox/bsplight/pkg/pak"
)

func cmdPak(args []string) error {
	fs, fl := newFlagSet("pak", "pak [options] <file.pak> [list [pattern] | extract <name or glob> | info]")
	limit := fs.Int("n", 0, "Limit list output to N files (0 = all)")
	outDir := fs.String("o", ".", "Extraction directory")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	if _, err := setup(fl); err != nil {
		return err
	}

	archive, err := pak.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	action := "list"
	if fs.NArg() > 1 {
		action = fs.Arg(1)
	}
	pattern := ""
	if fs.NArg() > 2 {
		pattern = fs.Arg(2)
	}

	switch action {
	case "list", "ls":
		count := 0
		for _, name := range archive.List() {
			if !matchEntry(pattern, name) {
				continue
			}
			e, _ := archive.Entry(name)
			fmt.Printf("%10d  %s\n", e.Size, name)
			count++
			if *limit > 0 && count >= *limit {
				break
			}
		}
		if pattern != "" {
			fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
		}
	case "extract", "x":
		if pattern == "" {
			fs.Usage()
			return errUsage
		}
		return extractEntries(archive, pattern, *outDir)
	case "info":
		printPakInfo(message.NewPrinter(language.English), fs.Arg(0), archive)
	default:
		fs.Usage()
		return errUsage
	}
	return nil
}

// matchEntry reports whether an archive member matches a glob against its
// base name, or a substring of its full path. An empty pattern matches
// everything.
func matchEntry(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	pattern = strings.ToLower(pattern)
	if strings.ContainsAny(pattern, "*?[") {
		if ok, _ := filepath.Match(pattern, filepath.Base(name)); ok {
			return true
		}
		ok, _ := filepath.Match(pattern, name)
		return ok
	}
	return name == pattern || strings.Contains(name, pattern)
}

func extractEntries(archive *pak.Archive, pattern, outDir string) error {
	extracted := 0
	for _, name := range archive.List() {
		if !matchEntry(pattern, name) {
			continue
		}
		data, err := archive.Read(name)
		if err != nil {
			return err
		}

		// Keep the archive's directory structure
		outPath := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
		logger.Info("extracted", zap.String("path", outPath), zap.Int("bytes", len(data)))
		extracted++
	}
	if extracted == 0 {
		return fmt.Errorf("%w: %s", pak.ErrNotFound, pattern)
	}
	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
	return nil
}

func printPakInfo(p *message.Printer, path string, archive *pak.Archive) {
	files := archive.List()
	extCount := make(map[string]int)
	var total int64
	for _, f := range files {
		e, _ := archive.Entry(f)
		total += e.Size
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
	}

	p.Printf("Archive: %s\n", path)
	p.Printf("Files:   %d\n", len(files))
	p.Printf("Size:    %d bytes\n", total)
	fmt.Println()
	fmt.Println("Files by type:")

	exts := make([]string, 0, len(extCount))
	for ext := range extCount {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if extCount[exts[i]] != extCount[exts[j]] {
			return extCount[exts[i]] > extCount[exts[j]]
		}
		return exts[i] < exts[j]
	})
	for _, ext := range exts {
		p.Printf("  %-10s %d\n", ext, extCount[ext])
	}
}
