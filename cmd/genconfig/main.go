// Package main implements the genconfig tool that writes config.default.toml
// from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/adiepenbrock/nerdpaper/internal/config"
)

func main() {
	result, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	// go generate runs from the package directory (internal/config/).
	// With go.mod at root, ../../ reaches the repo root where configdata.go
	// embeds config.default.toml as the single source of truth.
	outPath := "../../config.default.toml"
	if err := os.WriteFile(outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote config.default.toml\n")
}

// render encodes cfg as TOML and annotates it with docs: section banners,
// per-field comments, commented-out alternatives, and placeholders for
// documented fields the encoder omitted.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	lines := strings.Split(raw.String(), "\n")
	out := []string{
		"# ///////////////////////////////////////////////",
		"# Nerdpaper Configuration",
		"# ///////////////////////////////////////////////",
		"",
	}

	// Current TOML section path for field lookup
	var sectionStack []string
	// Doc keys already emitted, so omitted fields can be injected
	emittedKeys := map[string]bool{}
	// Array-of-tables names already introduced
	seenArrays := map[string]bool{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip empty lines from the encoder (we manage spacing ourselves)
		if trimmed == "" {
			continue
		}

		// Array-of-tables headers: [[foo]]. Only the first entry gets the
		// banner and docs; later entries are separated by a blank line.
		if strings.HasPrefix(trimmed, "[[") {
			section := strings.Trim(trimmed, "[] ")
			if !seenArrays[section] {
				injectOmitted(&out, docs, sectionStack, emittedKeys)
				seenArrays[section] = true
				out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
				out = appendComment(out, docs[section].Comment)
			} else {
				out = append(out, "")
			}
			sectionStack = parseSectionPath(section)
			out = append(out, trimmed)
			continue
		}

		// Section headers: [foo] or [foo.bar]
		if strings.HasPrefix(trimmed, "[") {
			injectOmitted(&out, docs, sectionStack, emittedKeys)

			section := strings.Trim(trimmed, "[] ")
			sectionStack = parseSectionPath(section)

			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			out = appendComment(out, docs[section].Comment)
			out = append(out, trimmed)
			continue
		}

		// Non key=value lines pass through unchanged
		if !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#") {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		fullPath := key
		if len(sectionStack) > 0 {
			fullPath = strings.Join(sectionStack, ".") + "." + key
		}
		emittedKeys[fullPath] = true

		doc, ok := docs[fullPath]
		if !ok {
			out = append(out, trimmed)
			continue
		}
		out = appendComment(out, doc.Comment)
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}

	// Inject any remaining omitted fields in the last section
	injectOmitted(&out, docs, sectionStack, emittedKeys)

	result := strings.Join(out, "\n")
	return strings.TrimRight(result, "\n") + "\n", nil
}

// appendComment appends each line of comment as a "# " line.
func appendComment(out []string, comment string) []string {
	if comment == "" {
		return out
	}
	for _, cl := range strings.Split(comment, "\n") {
		out = append(out, "# "+cl)
	}
	return out
}

// injectOmitted appends commented-out entries for docs keys that belong to
// the current section but were not emitted by the TOML encoder (typically
// because the field has an omitempty tag and holds its zero value). This ensures
// every documented option appears in the generated file, even when its value is
// omitted from the encoded output. Keys are sorted for deterministic ordering.
func injectOmitted(out *[]string, docs map[string]config.FieldDoc, sectionStack []string, emitted map[string]bool) {
	if len(sectionStack) == 0 {
		return
	}
	prefix := strings.Join(sectionStack, ".") + "."

	var omitted []string
	for path := range docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if strings.Contains(rest, ".") {
			continue
		}
		if emitted[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := docs[path]
		*out = append(*out, "")
		*out = appendComment(*out, doc.Comment)
		for _, alt := range doc.Alternatives {
			*out = append(*out, "# "+alt)
		}
		emitted[path] = true
	}
}

// parseSectionPath splits a dotted TOML section header (e.g. "font.cache")
// into its component path segments (["font", "cache"]). The returned slice
// is used as a stack to track the current nesting depth during output generation.
func parseSectionPath(section string) []string {
	return strings.Split(section, ".")
}

// sectionName returns a human-readable display name for a TOML section header
// by extracting the last dotted segment and capitalizing its first letter.
// For example, "palette" yields "Palette".
func sectionName(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
