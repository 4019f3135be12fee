package goldmod

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestBoundaryPackagesStayLean ensures the host-boundary types never grow
// dependencies that would leak into every consumer.
func TestBoundaryPackagesStayLean(t *testing.T) {
	checkImports(t, "./entity", []string{}, nil)
	checkImports(t, "./engine", []string{
		"goldmod/entity",
		"goldmod/engine", // enginetest sits underneath and fakes it
	}, nil)
	checkImports(t, "./internal", []string{}, nil)
}

// TestSubsystemsStayBelowTheBridge ensures no subsystem reaches up into the
// root package or ships the fake engine in production code.
func TestSubsystemsStayBelowTheBridge(t *testing.T) {
	for _, dir := range []string{
		"./message", "./command", "./player", "./menu", "./sched", "./store",
	} {
		checkImports(t, dir, nil, []string{
			"goldmod",
			"goldmod/engine/enginetest",
		})
	}
}

// checkImports parses every non-test source file under packageDir and
// verifies its goldmod-internal imports. allowed, when non-nil, is the
// complete set of permitted internal imports except goldmod/internal/log,
// which every package may use. forbidden entries always fail.
func checkImports(t *testing.T, packageDir string, allowed, forbidden []string) {
	err := filepath.Walk(packageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			return nil
		}

		for _, imp := range node.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			if importPath != "goldmod" && !strings.HasPrefix(importPath, "goldmod/") {
				continue
			}
			if importPath == "goldmod/internal/log" {
				continue
			}

			for _, f := range forbidden {
				if importPath == f {
					t.Errorf("FORBIDDEN import in %s: %s", path, importPath)
				}
			}

			if allowed != nil {
				ok := false
				for _, a := range allowed {
					if importPath == a {
						ok = true
						break
					}
				}
				if !ok {
					t.Errorf("DISALLOWED import in %s: %s (not in allowed list)", path, importPath)
				}
			}
		}

		return nil
	})

	if err != nil {
		t.Errorf("Failed to walk directory %s: %v", packageDir, err)
	}
}
