package kb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Update re-scans the project and rewrites the fact store. It returns
// the fresh snapshot.
func Update(projectRoot, specDir string) (*Store, error) {
	facts := map[string]string{}

	facts["project.name"] = filepath.Base(projectRoot)

	if err := scanGoMod(projectRoot, facts); err != nil {
		return nil, err
	}
	if err := scanFiles(projectRoot, facts); err != nil {
		return nil, err
	}
	scanTooling(projectRoot, facts)

	if err := save(specDir, facts); err != nil {
		return nil, err
	}

	return &Store{facts: facts}, nil
}

// scanGoMod records module path, go directive, and direct requires.
func scanGoMod(projectRoot string, facts map[string]string) error {
	f, err := os.Open(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read go.mod: %w", err)
	}
	defer func() { _ = f.Close() }()

	requires := 0
	inBlock := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "module "):
			facts["go.module"] = strings.TrimSpace(strings.TrimPrefix(line, "module "))
		case strings.HasPrefix(line, "go "):
			facts["go.version"] = strings.TrimSpace(strings.TrimPrefix(line, "go "))
		case strings.HasPrefix(line, "require ("):
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock && line != "" && !strings.HasPrefix(line, "//"):
			if !strings.HasSuffix(line, "// indirect") {
				requires++
			}
		case strings.HasPrefix(line, "require ") && !strings.HasSuffix(line, "// indirect"):
			requires++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan go.mod: %w", err)
	}

	if _, ok := facts["go.module"]; ok {
		facts["go.requires"] = strconv.Itoa(requires)
	}
	return nil
}

// scanFiles counts source files by extension, skipping hidden and
// vendor directories.
func scanFiles(projectRoot string, facts map[string]string) error {
	counts := map[string]int{}
	total := 0

	err := filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not facts
		}
		name := d.Name()
		if d.IsDir() {
			if path != projectRoot && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		total++
		switch filepath.Ext(name) {
		case ".go":
			counts["go"]++
		case ".py":
			counts["py"]++
		case ".md":
			counts["md"]++
		case ".toml":
			counts["toml"]++
		case ".yaml", ".yml":
			counts["yaml"]++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}

	facts["files.total"] = strconv.Itoa(total)
	for ext, n := range counts {
		facts["files."+ext] = strconv.Itoa(n)
	}
	return nil
}

// scanTooling records presence markers for common project tooling.
func scanTooling(projectRoot string, facts map[string]string) {
	markers := map[string]string{
		"tools.makefile":   "Makefile",
		"tools.dockerfile": "Dockerfile",
		"ci.github":        filepath.Join(".github", "workflows"),
		"tools.golangci":   ".golangci.yml",
	}
	for key, rel := range markers {
		if _, err := os.Stat(filepath.Join(projectRoot, rel)); err == nil {
			facts[key] = "true"
		}
	}
}
