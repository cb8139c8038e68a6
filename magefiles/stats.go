package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
)

// packageLines counts the non-blank Go lines of one package directory.
type packageLines struct {
	prod  int
	tests int
}

// Stats prints the Go line counts of every package under cmd/, internal/,
// and pkg/, with the share of test code.
func Stats() error {
	counts := map[string]*packageLines{}
	for _, root := range []string{"cmd", "internal", "pkg"} {
		if err := countPackages(root, counts); err != nil {
			return err
		}
	}

	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "package\tlines\ttest lines\ttest share\t")
	var total packageLines
	for _, dir := range dirs {
		c := counts[dir]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t\n", dir, c.prod, c.tests, testShare(c))
		total.prod += c.prod
		total.tests += c.tests
	}
	fmt.Fprintf(w, "total\t%d\t%d\t%s\t\n", total.prod, total.tests, testShare(&total))
	return w.Flush()
}

func testShare(c *packageLines) string {
	if c.prod+c.tests == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(c.tests)/float64(c.prod+c.tests))
}

// countPackages adds the Go files under root to counts, keyed by directory.
func countPackages(root string, counts map[string]*packageLines) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		c, ok := counts[dir]
		if !ok {
			c = &packageLines{}
			counts[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.tests += n
		} else {
			c.prod += n
		}
		return nil
	})
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
