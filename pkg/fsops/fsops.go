// Package fsops stages filesystem mutations as operations and executes
// them through a synthfs pipeline, so dry-run mode can preview every
// write before anything touches the disk.
package fsops

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/logging"
)

// OpType identifies a staged filesystem mutation.
type OpType string

const (
	OpCreateDir  OpType = "create_dir"
	OpWriteFile  OpType = "write_file"
	OpDeleteFile OpType = "delete_file"
)

// Op is one staged filesystem mutation.
type Op struct {
	Type    OpType
	Target  string
	Content []byte
	Mode    fs.FileMode
}

// CreateDir stages a directory creation.
func CreateDir(target string, mode fs.FileMode) Op {
	return Op{Type: OpCreateDir, Target: target, Mode: mode}
}

// WriteFile stages a file write.
func WriteFile(target string, content []byte, mode fs.FileMode) Op {
	return Op{Type: OpWriteFile, Target: target, Content: content, Mode: mode}
}

// DeleteFile stages a file removal.
func DeleteFile(target string) Op {
	return Op{Type: OpDeleteFile, Target: target}
}

// Executor executes staged operations. Production code uses the
// synthfs-backed implementation; tests apply operations to an in-memory
// filesystem instead.
type Executor interface {
	Execute(ops []Op) error
}

// SynthfsExecutor executes staged operations through a synthfs pipeline.
type SynthfsExecutor struct {
	logger     zerolog.Logger
	dryRun     bool
	filesystem synthfs.FileSystem
}

// NewExecutor creates a synthfs-based executor rooted at /.
func NewExecutor(dryRun bool) *SynthfsExecutor {
	return &SynthfsExecutor{
		logger:     logging.GetLogger("fsops"),
		dryRun:     dryRun,
		filesystem: filesystem.NewOSFileSystem("/"),
	}
}

// Execute runs the staged operations in order. In dry-run mode it logs
// what would happen and returns nil.
func (e *SynthfsExecutor) Execute(ops []Op) error {
	if e.dryRun {
		e.logger.Info().Msg("Dry run mode - operations would be executed:")
		for _, op := range ops {
			e.logOperation(op)
		}
		return nil
	}

	synthOps := make([]synthfs.Operation, 0, len(ops))
	for _, op := range ops {
		synthOp, err := e.convert(op)
		if err != nil {
			return err
		}
		synthOps = append(synthOps, synthOp)
	}

	if len(synthOps) == 0 {
		e.logger.Debug().Msg("No operations to execute")
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range synthOps {
		if err := pipeline.Add(op); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite,
				"failed to add operation to pipeline")
		}
	}

	executor := synthfs.NewExecutor()
	e.logger.Debug().Int("operationCount", len(synthOps)).Msg("Executing operations")

	result := executor.Run(context.Background(), pipeline, e.filesystem)
	if result.GetError() != nil {
		return errors.Wrapf(result.GetError(), errors.ErrFileWrite,
			"failed to execute filesystem operations")
	}
	return nil
}

// convert maps a staged operation to a synthfs operation. synthfs works
// on paths relative to the filesystem root.
func (e *SynthfsExecutor) convert(op Op) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput, "operation requires a target")
	}
	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	switch op.Type {
	case OpCreateDir:
		mode := op.Mode
		if mode == 0 {
			mode = 0755
		}
		opID := core.OperationID(fmt.Sprintf("create-dir-%s", op.Target))
		createOp := operations.NewCreateDirectoryOperation(opID, relPath)
		createOp.SetItem(&directoryItem{path: relPath, mode: mode})
		return synthfs.NewOperationsPackageAdapter(createOp), nil

	case OpWriteFile:
		mode := op.Mode
		if mode == 0 {
			mode = 0644
		}
		opID := core.OperationID(fmt.Sprintf("write-file-%s", op.Target))
		createOp := operations.NewCreateFileOperation(opID, relPath)
		createOp.SetItem(&fileItem{path: relPath, content: op.Content, mode: mode})
		return synthfs.NewOperationsPackageAdapter(createOp), nil

	case OpDeleteFile:
		opID := core.OperationID(fmt.Sprintf("delete-%s", op.Target))
		deleteOp := operations.NewDeleteOperation(opID, relPath)
		return synthfs.NewOperationsPackageAdapter(deleteOp), nil
	}

	return nil, errors.Newf(errors.ErrInvalidInput, "unknown operation type %q", op.Type)
}

func (e *SynthfsExecutor) logOperation(op Op) {
	switch op.Type {
	case OpCreateDir:
		e.logger.Info().Str("target", op.Target).Msg("Would create directory")
	case OpWriteFile:
		e.logger.Info().
			Str("target", op.Target).
			Int("contentLen", len(op.Content)).
			Msg("Would write file")
	case OpDeleteFile:
		e.logger.Info().Str("target", op.Target).Msg("Would delete file")
	}
}

// Item types for synthfs operations

// fileItem implements the interface needed for file operations
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }

// directoryItem implements the interface needed for directory operations
type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }
