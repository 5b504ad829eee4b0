// Package publisher syncs compiled garden builds into the site repository.
// Each run clones the repository into a scratch workspace, diffs the compiled
// artifacts against the published tree, then commits and pushes the changes.
package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/google/uuid"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/garden"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
	"github.com/A1i98/obsidian-digital-garden/internal/metrics"
	"github.com/A1i98/obsidian-digital-garden/internal/retry"
	"github.com/A1i98/obsidian-digital-garden/internal/workspace"
)

var (
	// ErrCloneFailed indicates the garden repository could not be cloned.
	ErrCloneFailed = errors.New("failed to clone garden repository")
	// ErrPublishFailed indicates changes could not be computed, committed or
	// pushed.
	ErrPublishFailed = errors.New("failed to publish garden")
)

const (
	commitAuthorName  = "gardenbuilder"
	commitAuthorEmail = "gardenbuilder@localhost"
)

// Changes is the file-level difference between a build and the garden
// repository contents. Paths are repository-relative, slash-separated.
type Changes struct {
	Create    []string
	Update    []string
	Delete    []string
	Unchanged int
}

// Empty reports whether the repository already matches the build.
func (c *Changes) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// Total is the number of files a publish would touch.
func (c *Changes) Total() int {
	return len(c.Create) + len(c.Update) + len(c.Delete)
}

// Result describes one publish run.
type Result struct {
	SessionID string
	Changes   *Changes
	CommitSHA string // empty when nothing changed
	Pushed    bool
	Duration  time.Duration
}

// Publisher syncs compiled builds into the garden site repository.
type Publisher struct {
	garden      *config.GardenConfig
	vaultDir    string
	recorder    metrics.Recorder
	retryPolicy retry.Policy
	// workDir is the base for scratch checkouts; empty means the system
	// temp directory.
	workDir string
}

// NewPublisher creates a publisher reading attachments from vaultDir.
// A nil recorder disables metrics.
func NewPublisher(gardenCfg *config.GardenConfig, vaultDir string, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Publisher{
		garden:      gardenCfg,
		vaultDir:    vaultDir,
		recorder:    recorder,
		retryPolicy: retry.DefaultPolicy(),
	}
}

// WithRetryPolicy overrides the backoff policy used when a publish fails
// transiently, for example a push rejected because the remote advanced.
func (p *Publisher) WithRetryPolicy(policy retry.Policy) *Publisher {
	p.retryPolicy = policy
	return p
}

// Status computes the changes a publish would make without writing anything
// to the repository.
func (p *Publisher) Status(ctx context.Context, build *garden.Build) (*Changes, error) {
	desired, err := p.desiredFiles(build)
	if err != nil {
		return nil, err
	}

	s, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.close()

	return p.diff(s.dir, desired)
}

// Publish syncs the build into the garden repository: files the build no
// longer produces are deleted, new and changed files are written, and the
// result is committed and pushed. When the repository already matches the
// build, nothing is committed and Result.Pushed is false.
func (p *Publisher) Publish(ctx context.Context, build *garden.Build) (*Result, error) {
	start := time.Now()
	result := &Result{SessionID: uuid.NewString()}

	slog.Info("publishing garden",
		logfields.SessionID(result.SessionID),
		logfields.URL(p.garden.URL),
		logfields.Branch(p.garden.Branch))

	// A retried publish starts from a fresh clone, so it diffs against
	// whatever state the remote advanced to.
	err := retry.Do(ctx, p.retryPolicy, retryablePushError, func() error {
		return p.publish(ctx, build, result)
	})
	result.Duration = time.Since(start)
	p.recorder.ObservePublishDuration(result.Duration, err == nil)

	switch {
	case err != nil:
		p.recorder.IncPublishOutcome(metrics.OutcomeFailed)
		return nil, err
	case result.Pushed:
		p.recorder.IncPublishOutcome(metrics.OutcomeSuccess)
	default:
		p.recorder.IncPublishOutcome(metrics.OutcomeNoop)
	}
	return result, nil
}

func (p *Publisher) publish(ctx context.Context, build *garden.Build, result *Result) error {
	desired, err := p.desiredFiles(build)
	if err != nil {
		return err
	}

	s, err := p.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	changes, err := p.diff(s.dir, desired)
	if err != nil {
		return err
	}
	result.Changes = changes

	if changes.Empty() {
		slog.Info("garden already up to date",
			logfields.SessionID(result.SessionID),
			slog.Int("unchanged", changes.Unchanged))
		return nil
	}

	sha, err := p.commit(s, desired, changes)
	if err != nil {
		return err
	}

	pushOpts := &git.PushOptions{RemoteName: "origin", Auth: s.auth}
	if err := s.repo.PushContext(ctx, pushOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: push to %s: %w", ErrPublishFailed, p.garden.URL, err)
	}

	result.CommitSHA = sha
	result.Pushed = true
	p.recorder.AddPublishedFiles(metrics.ActionCreated, len(changes.Create))
	p.recorder.AddPublishedFiles(metrics.ActionUpdated, len(changes.Update))
	p.recorder.AddPublishedFiles(metrics.ActionDeleted, len(changes.Delete))

	slog.Info("garden published",
		logfields.SessionID(result.SessionID),
		slog.String("commit", sha[:8]),
		slog.Int("created", len(changes.Create)),
		slog.Int("updated", len(changes.Update)),
		slog.Int("deleted", len(changes.Delete)))
	return nil
}

// retryablePushError reports whether a publish failure is worth a fresh
// attempt: pushes rejected because the remote advanced mid-publish, and
// transient network failures. Everything else (missing repository, bad
// credentials, unreadable attachments) is permanent.
func retryablePushError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"non-fast-forward",
		"diverged",
		"remote hung up",
		"connection reset",
		"i/o timeout",
		"no route to host",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// session is one cloned checkout of the garden repository.
type session struct {
	ws   *workspace.Manager
	dir  string
	repo *git.Repository
	auth transport.AuthMethod
}

func (s *session) close() {
	if err := s.ws.Cleanup(); err != nil {
		slog.Warn("workspace cleanup failed", logfields.Error(err))
	}
}

func (p *Publisher) open(ctx context.Context) (*session, error) {
	auth, err := authMethod(p.garden.Auth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCloneFailed, err)
	}

	ws := workspace.NewManager(p.workDir)
	if err := ws.Create(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCloneFailed, err)
	}
	dir := ws.GetPath()

	slog.Debug("cloning garden repository",
		logfields.URL(p.garden.URL),
		logfields.Branch(p.garden.Branch),
		logfields.Path(dir))

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           p.garden.URL,
		Auth:          auth,
		ReferenceName: plumbing.ReferenceName("refs/heads/" + p.garden.Branch),
		SingleBranch:  true,
	})
	if err != nil {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			slog.Warn("workspace cleanup failed", logfields.Error(cleanupErr))
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCloneFailed, p.garden.URL, err)
	}

	return &session{ws: ws, dir: dir, repo: repo, auth: auth}, nil
}

// desiredFiles maps repository paths to the exact content a publish should
// leave there: compiled pages plus the vault attachments they reference.
func (p *Publisher) desiredFiles(build *garden.Build) (map[string][]byte, error) {
	files := make(map[string][]byte, len(build.Pages)+len(build.Images))
	for _, page := range build.Pages {
		files[garden.RepoNotePath(p.garden.NotesDir, page)] = []byte(page.Content)
	}
	for _, rel := range build.Images {
		content, err := os.ReadFile(filepath.Join(p.vaultDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("%w: read attachment %s: %w", ErrPublishFailed, rel, err)
		}
		files[garden.RepoImagePath(p.garden.ImagesDir, rel)] = content
	}
	return files, nil
}

func (p *Publisher) diff(checkout string, desired map[string][]byte) (*Changes, error) {
	existing, err := managedFiles(checkout, p.garden.NotesDir, p.garden.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan checkout: %w", ErrPublishFailed, err)
	}

	changes := &Changes{}
	for repoPath, want := range desired {
		if !existing[repoPath] {
			changes.Create = append(changes.Create, repoPath)
			continue
		}
		same, err := filesEqual(filepath.Join(checkout, filepath.FromSlash(repoPath)), repoPath, want)
		if err != nil {
			return nil, fmt.Errorf("%w: compare %s: %w", ErrPublishFailed, repoPath, err)
		}
		if same {
			changes.Unchanged++
		} else {
			changes.Update = append(changes.Update, repoPath)
		}
	}
	for repoPath := range existing {
		if _, ok := desired[repoPath]; !ok {
			changes.Delete = append(changes.Delete, repoPath)
		}
	}

	sort.Strings(changes.Create)
	sort.Strings(changes.Update)
	sort.Strings(changes.Delete)
	return changes, nil
}

// managedFiles lists repo-relative slash paths of files currently under the
// published directories. Files outside those directories are never touched.
func managedFiles(checkout string, dirs ...string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, dir := range dirs {
		root := filepath.Join(checkout, filepath.FromSlash(dir))
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(fpath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(checkout, fpath)
			if err != nil {
				return err
			}
			found[filepath.ToSlash(rel)] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// filesEqual reports whether a checked-out file matches the compiled content.
// Markdown compares by canonical fingerprint so key order and line endings
// don't force spurious commits; everything else compares byte for byte.
func filesEqual(absPath, repoPath string, want []byte) (bool, error) {
	current, err := os.ReadFile(absPath)
	if err != nil {
		return false, err
	}
	if strings.HasSuffix(repoPath, ".md") {
		return NoteFingerprint(current) == NoteFingerprint(want), nil
	}
	return bytes.Equal(current, want), nil
}

func (p *Publisher) commit(s *session, desired map[string][]byte, changes *Changes) (string, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: worktree: %w", ErrPublishFailed, err)
	}

	for _, repoPath := range changes.Create {
		if err := stageWrite(wt, s.dir, repoPath, desired[repoPath]); err != nil {
			return "", err
		}
	}
	for _, repoPath := range changes.Update {
		if err := stageWrite(wt, s.dir, repoPath, desired[repoPath]); err != nil {
			return "", err
		}
	}
	for _, repoPath := range changes.Delete {
		if _, err := wt.Remove(repoPath); err != nil {
			return "", fmt.Errorf("%w: remove %s: %w", ErrPublishFailed, repoPath, err)
		}
	}

	sha, err := wt.Commit(commitMessage(changes), &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthorName,
			Email: commitAuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: commit: %w", ErrPublishFailed, err)
	}
	return sha.String(), nil
}

func stageWrite(wt *git.Worktree, checkout, repoPath string, content []byte) error {
	dest := filepath.Join(checkout, filepath.FromSlash(repoPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, repoPath, err)
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, repoPath, err)
	}
	if _, err := wt.Add(repoPath); err != nil {
		return fmt.Errorf("%w: stage %s: %w", ErrPublishFailed, repoPath, err)
	}
	return nil
}

func commitMessage(c *Changes) string {
	return fmt.Sprintf("Published %d files (%d new, %d updated, %d deleted)",
		c.Total(), len(c.Create), len(c.Update), len(c.Delete))
}
