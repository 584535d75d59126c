// Package loader locates and parses course content by convention: a YAML
// manifest describing the outline, plus MDX lesson bodies whose paths mirror
// the outline leaves. Content comes either through a fsys.FileSystem or from
// assets bundled into the binary at build time.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"strings"

	"gopkg.in/yaml.v3"

	"coursefs/internal/concurrency"
	"coursefs/internal/domain"
	"coursefs/internal/fsys"
)

// Manifest locations probed in order: the namespaced content directory,
// then the legacy root path.
var manifestPaths = []string{
	"src/content/course.yaml",
	"course.yaml",
}

// DefaultStructure is returned when no manifest exists anywhere.
var DefaultStructure = domain.CourseStructure{Title: "Course"}

// ErrorStructure is returned when a manifest exists but cannot be read or
// parsed. The failure itself is only logged.
var ErrorStructure = domain.CourseStructure{Title: "Error loading course"}

// Loader resolves course content. FS may be nil, in which case everything
// is served from Bundle (the build-time asset set, rooted at the directory
// that contains content/).
type Loader struct {
	FS     fsys.FileSystem
	Bundle fs.FS
}

// LoadCourseStructure finds and parses the course manifest. It never fails:
// a missing manifest yields DefaultStructure and a broken one yields
// ErrorStructure, so callers cannot tell "no course defined" from a
// transient failure. That conflation is part of the contract.
func (l *Loader) LoadCourseStructure(ctx context.Context) domain.CourseStructure {
	if l.FS == nil {
		return l.loadBundledStructure()
	}

	for _, p := range manifestPaths {
		if !l.FS.Exists(ctx, p) {
			continue
		}
		content, err := l.FS.ReadFile(ctx, p)
		if err != nil {
			log.Printf("loader: read manifest %s: %v", p, err)
			return ErrorStructure
		}
		return parseStructure(p, []byte(content))
	}
	return DefaultStructure
}

// LoadCourseStructureDirect probes the same manifest locations with plain
// reads, no existence check first. The static backend always answers false
// to Exists, so callers serving from it use this entry point instead. The
// failure policy matches LoadCourseStructure: absence moves to the next
// candidate, anything else logs and yields ErrorStructure.
func (l *Loader) LoadCourseStructureDirect(ctx context.Context) domain.CourseStructure {
	if l.FS == nil {
		return l.loadBundledStructure()
	}

	for _, p := range manifestPaths {
		content, err := l.FS.ReadFile(ctx, p)
		if err != nil {
			if errors.Is(err, fsys.ErrNotFound) {
				continue
			}
			log.Printf("loader: read manifest %s: %v", p, err)
			return ErrorStructure
		}
		return parseStructure(p, []byte(content))
	}
	return DefaultStructure
}

func (l *Loader) loadBundledStructure() domain.CourseStructure {
	if l.Bundle == nil {
		return DefaultStructure
	}
	for _, p := range []string{"content/course.yaml", "course.yaml"} {
		data, err := fs.ReadFile(l.Bundle, p)
		if err != nil {
			continue
		}
		return parseStructure(p, data)
	}
	return DefaultStructure
}

func parseStructure(path string, data []byte) domain.CourseStructure {
	var out domain.CourseStructure
	if err := yaml.Unmarshal(data, &out); err != nil {
		log.Printf("loader: parse manifest %s: %v", path, err)
		return ErrorStructure
	}
	return out
}

// LoadBundledFile resolves one MDX lesson from the build-time assets. The
// input is normalized (leading slash, src/content/ prefix and .mdx suffix
// stripped) and looked up as <path>.mdx, then <path>/index.mdx. A miss is
// reported as ok=false, never as an error.
func (l *Loader) LoadBundledFile(path string) (string, bool) {
	if l.Bundle == nil {
		return "", false
	}

	p := strings.TrimPrefix(path, "/")
	p = strings.TrimPrefix(p, "src/content/")
	p = strings.TrimPrefix(p, "content/")
	p = strings.TrimSuffix(p, ".mdx")
	if p == "" {
		return "", false
	}

	for _, candidate := range []string{"content/" + p + ".mdx", "content/" + p + "/index.mdx"} {
		if data, err := fs.ReadFile(l.Bundle, candidate); err == nil {
			return string(data), true
		}
	}
	return "", false
}

// LessonPath maps an outline leaf to the conventional MDX location.
func LessonPath(leaf string) string {
	return "src/content/" + strings.TrimPrefix(leaf, "/") + ".mdx"
}

// LoadLessons fetches the MDX body for every leaf of the structure, in
// parallel through the filesystem (or from the bundle when FS is nil).
// Lessons that fail to load are logged and skipped, matching the manifest
// policy of never surfacing content errors.
func (l *Loader) LoadLessons(ctx context.Context, structure domain.CourseStructure) map[string]string {
	leaves := structure.Leaves()
	out := make(map[string]string, len(leaves))

	if l.FS == nil {
		for _, leaf := range leaves {
			if body, ok := l.LoadBundledFile(leaf.Path); ok {
				out[leaf.Path] = body
			} else {
				log.Printf("loader: bundled lesson %s not found", leaf.Path)
			}
		}
		return out
	}

	type lesson struct {
		path string
		body string
	}
	results, errs := concurrency.ProcessParallel(ctx, leaves, concurrency.DefaultOptions(),
		func(ctx context.Context, _ int, leaf domain.CourseItem) (lesson, error) {
			body, err := l.FS.ReadFile(ctx, LessonPath(leaf.Path))
			if err != nil {
				return lesson{}, err
			}
			return lesson{path: leaf.Path, body: body}, nil
		})
	for _, err := range errs {
		log.Printf("loader: load lesson: %v", err)
	}
	for _, r := range results {
		if r.path != "" {
			out[r.path] = r.body
		}
	}
	return out
}
