package build

import (
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
)

// Renderer computes artifacts without writing them. *dts.Emitter satisfies it.
type Renderer interface {
	Render(ctx context.Context, target dts.BuildTarget) (string, error)
	OutputPath(target dts.BuildTarget) string
}

// Drift status values
const (
	StatusMissing = "missing"
	StatusDiffers = "differs"
)

// Drift is one artifact whose dist copy does not match a fresh build
type Drift struct {
	Target dts.BuildTarget
	Path   string
	Status string
	Diff   string // line diff, dist copy (-) against fresh build (+)
}

// CheckResult holds the result of a dist check
type CheckResult struct {
	UpToDate bool
	Drifts   []Drift // in target order
}

// Check renders every target in memory and compares it with the file
// already in dist. Nothing is written. Render failures abort the check.
func Check(ctx context.Context, r Renderer, fs afero.Fs, targets []dts.BuildTarget, concurrency int) (*CheckResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	drifts := make([]*Drift, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, target := range targets {
		g.Go(func() error {
			fresh, err := r.Render(gctx, target)
			if err != nil {
				return errors.Wrapf(err, "target %s", target)
			}

			path := r.OutputPath(target)
			existing, err := fsutil.ReadFile(fs, path)
			if err != nil {
				if !errors.IsNotFoundError(err) {
					return err
				}
				drifts[i] = &Drift{Target: target, Path: path, Status: StatusMissing}
				return nil
			}

			if string(existing) != fresh {
				drifts[i] = &Drift{
					Target: target,
					Path:   path,
					Status: StatusDiffers,
					Diff:   LineDiff(string(existing), fresh),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &CheckResult{}
	for _, d := range drifts {
		if d != nil {
			result.Drifts = append(result.Drifts, *d)
		}
	}
	result.UpToDate = len(result.Drifts) == 0
	return result, nil
}

// LineDiff renders the changed lines between two texts, prefixed with
// "-" (only in old) or "+" (only in new).
func LineDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
