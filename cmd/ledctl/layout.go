//go:build !tinygo

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//go:embed layout.go.tmpl
var layoutSource string

var layoutTmpl = template.Must(template.New("layout").Parse(layoutSource))

// newLayoutCmd fills empty .go files with the section layout. Files with any
// content are left alone; other extensions are skipped. It is meant to run as
// a pre-commit hook over the staged files.
func newLayoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout <file>...",
		Short: "Write the standard section layout into empty Go files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if filepath.Ext(path) != ".go" {
					continue
				}
				added, err := applyLayout(path)
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(a.out, "added layout: %s\n", path)
				} else {
					fmt.Fprintf(a.out, "checked: %s\n", path)
				}
			}
			return nil
		},
	}
}

// applyLayout writes the template into path when the file holds only
// whitespace. It reports whether the file was written.
func applyLayout(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", path)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		return false, nil
	}
	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, struct{ Package string }{packageFor(path)}); err != nil {
		return false, errors.Wrap(err, "render layout")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, errors.Wrapf(err, "write %s", path)
	}
	return true, nil
}

// packageFor derives a package clause from the directory holding path:
// lower-cased, non-identifier runes dropped, "main" when nothing usable is left.
func packageFor(path string) string {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, filepath.Base(dir))
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "main"
	}
	return name
}
