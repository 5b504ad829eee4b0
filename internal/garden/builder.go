package garden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/frontmatter"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
	"github.com/A1i98/obsidian-digital-garden/internal/metrics"
	"github.com/A1i98/obsidian-digital-garden/internal/util/sets"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
)

var (
	// ErrBuildFailed indicates the vault could not be compiled.
	ErrBuildFailed = errors.New("garden build failed")
	// ErrWriteFailed indicates compiled artifacts could not be written.
	ErrWriteFailed = errors.New("failed to write garden output")
)

// Build is the result of compiling a vault into publishable artifacts.
type Build struct {
	Pages    []*Page
	Images   []string // union of page image references, first-reference order
	Notes    int      // markdown notes scanned
	Skipped  int      // notes without the publish flag
	Failed   int      // notes that could not be compiled
	Duration time.Duration
}

// Builder compiles a whole vault: it scans for notes, selects the published
// ones and compiles each into a page.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewBuilder creates a builder. A nil recorder disables metrics.
func NewBuilder(cfg *config.Config, recorder metrics.Recorder) *Builder {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, recorder: recorder}
}

type buildEntry struct {
	note   *vault.Note
	source map[string]any
	body   []byte
}

// Run scans the vault and compiles every note carrying the publish flag.
// Notes that fail to load or parse are logged and counted, never fatal: one
// broken note must not hold back the rest of the garden.
func (b *Builder) Run(ctx context.Context) (*Build, error) {
	start := time.Now()

	scanner := vault.NewScanner(b.cfg.Vault.Path, b.cfg.Vault.IgnorePrefixes)
	notes, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	index := vault.NewLinkIndex(notes)
	compiler := NewCompiler(&b.cfg.Compile, index)

	build := &Build{}
	permalinks := make(map[string]string)
	permalinkOwners := make(map[string]string)
	var entries []buildEntry

	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
		}
		if note.IsAttachment {
			continue
		}
		build.Notes++

		source, body, ok := b.loadSource(note)
		if !ok {
			build.Failed++
			b.recorder.IncNoteResult(metrics.ResultFailed)
			continue
		}
		if !HasPublishFlag(source) {
			build.Skipped++
			b.recorder.IncNoteResult(metrics.ResultSkipped)
			slog.Debug("note not published", logfields.Note(note.RelativePath))
			continue
		}

		fields := compiler.CompileFields(note, source)
		permalink, _ := fields["permalink"].(string)
		if owner, taken := permalinkOwners[permalink]; taken {
			slog.Warn("permalink collision, later note wins",
				logfields.Permalink(permalink),
				slog.String("first", owner),
				logfields.Note(note.RelativePath))
		}
		permalinkOwners[permalink] = note.RelativePath
		permalinks[note.RelativePath] = permalink

		entries = append(entries, buildEntry{note: note, source: source, body: body})
	}

	pages := NewPageCompiler(compiler, index, permalinks, b.cfg.Garden.ImagesDir)
	images := &sets.Ordered[string]{}

	for _, entry := range entries {
		page, err := pages.CompilePage(entry.note, entry.source, entry.body)
		if err != nil {
			slog.Warn("note compile failed", logfields.Note(entry.note.RelativePath), logfields.Error(err))
			build.Failed++
			b.recorder.IncNoteResult(metrics.ResultFailed)
			continue
		}
		if unresolved := UnresolvedLinks(index, entry.note, entry.body); len(unresolved) > 0 {
			slog.Warn("note references files missing from the vault",
				logfields.Note(entry.note.RelativePath),
				slog.String("destinations", strings.Join(unresolved, ", ")))
		}
		for _, image := range page.Images {
			images.Add(image)
		}
		build.Pages = append(build.Pages, page)
		b.recorder.IncNoteResult(metrics.ResultCompiled)
	}

	build.Images = images.Values()
	build.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(build.Duration)

	slog.Info("garden build finished",
		slog.Int("notes", build.Notes),
		slog.Int("published", len(build.Pages)),
		slog.Int("skipped", build.Skipped),
		slog.Int("failed", build.Failed),
		slog.Int("images", len(build.Images)),
		logfields.DurationMS(float64(build.Duration.Milliseconds())))

	return build, nil
}

// loadSource reads a note and splits its frontmatter, reporting whether the
// note is usable.
func (b *Builder) loadSource(note *vault.Note) (map[string]any, []byte, bool) {
	if err := note.LoadContent(); err != nil {
		slog.Warn("note unreadable", logfields.Note(note.RelativePath), logfields.Error(err))
		return nil, nil, false
	}

	fm, body, _, _, err := frontmatter.Split(note.Content)
	if err != nil {
		slog.Warn("note frontmatter malformed", logfields.Note(note.RelativePath), logfields.Error(err))
		return nil, nil, false
	}

	source, err := frontmatter.ParseYAML(fm)
	if err != nil {
		slog.Warn("note frontmatter unparseable", logfields.Note(note.RelativePath), logfields.Error(err))
		return nil, nil, false
	}
	return source, body, true
}

// RepoNotePath is the path of a page's markdown file inside the garden
// repository (and under a local output directory).
func RepoNotePath(notesDir string, page *Page) string {
	return path.Join(notesDir, page.Note.RelativePath)
}

// RepoImagePath is the path of a vault attachment inside the garden
// repository.
func RepoImagePath(imagesDir, rel string) string {
	return path.Join(imagesDir, PublishedImagePath(rel))
}

// WriteLocal materializes a build under dir using the garden repository
// layout, so a local static-site checkout can consume it directly.
func (b *Builder) WriteLocal(build *Build, dir string) error {
	if b.cfg.Output.Clean {
		for _, sub := range []string{b.cfg.Garden.NotesDir, b.cfg.Garden.ImagesDir} {
			if err := os.RemoveAll(filepath.Join(dir, filepath.FromSlash(sub))); err != nil {
				return fmt.Errorf("%w: clean %s: %w", ErrWriteFailed, sub, err)
			}
		}
	}

	for _, page := range build.Pages {
		dest := filepath.Join(dir, filepath.FromSlash(RepoNotePath(b.cfg.Garden.NotesDir, page)))
		if err := writeFile(dest, []byte(page.Content)); err != nil {
			return err
		}
	}

	for _, rel := range build.Images {
		src := filepath.Join(b.cfg.Vault.Path, filepath.FromSlash(rel))
		content, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("%w: read attachment %s: %w", ErrWriteFailed, rel, err)
		}
		dest := filepath.Join(dir, filepath.FromSlash(RepoImagePath(b.cfg.Garden.ImagesDir, rel)))
		if err := writeFile(dest, content); err != nil {
			return err
		}
	}

	slog.Info("garden written",
		logfields.Path(dir),
		slog.Int("pages", len(build.Pages)),
		slog.Int("images", len(build.Images)))
	return nil
}

func writeFile(dest string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, dest, err)
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, dest, err)
	}
	return nil
}
