package build

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/workspace"
)

// stagingPath is the sibling directory the next output is assembled in so
// that it can be renamed into place.
func stagingPath(out string) string { return out + "_stage" }

// backupPath holds the previous output for the duration of the swap.
func backupPath(out string) string { return out + ".prev" }

// publish replaces out with the contents of staged:
//  1. copy staged to <out>_stage next to out (same filesystem as out),
//  2. rename out to <out>.prev,
//  3. rename <out>_stage to out,
//  4. remove <out>.prev.
//
// Readers of out see either the previous tree or the new one.
func publish(staged, out string) error {
	stage := stagingPath(out)
	prev := backupPath(out)

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return publishError(err, "failed to create output parent", out)
	}
	if err := os.RemoveAll(stage); err != nil {
		return publishError(err, "failed to clear publish staging", stage)
	}
	if err := workspace.CopyTree(staged, stage); err != nil {
		return publishError(err, "failed to copy output", stage)
	}

	hadPrevious := false
	if _, err := os.Stat(out); err == nil {
		if err := os.RemoveAll(prev); err != nil {
			return publishError(err, "failed to remove previous backup", prev)
		}
		if err := os.Rename(out, prev); err != nil {
			return publishError(err, "failed to back up existing output", out)
		}
		hadPrevious = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return publishError(err, "failed to stat output", out)
	}

	if err := os.Rename(stage, out); err != nil {
		if hadPrevious {
			if rerr := os.Rename(prev, out); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Output(out), logfields.Error(rerr))
			}
		}
		return publishError(err, "failed to promote output", out)
	}

	if hadPrevious {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Info("Published output", logfields.Output(out))
	return nil
}

// abortPublish removes a staging tree left behind by a failed publish.
func abortPublish(out string) {
	stage := stagingPath(out)
	if _, err := os.Stat(stage); err != nil {
		return
	}
	if err := os.RemoveAll(stage); err != nil {
		slog.Warn("Failed to remove publish staging", logfields.Path(stage), logfields.Error(err))
	}
}

func publishError(err error, msg, path string) error {
	return ferrors.FileSystemError(msg).WithCause(err).WithContext("path", path).Build()
}
