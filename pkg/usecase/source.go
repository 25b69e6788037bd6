package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// maxExtractSize bounds the uncompressed size of a downloaded source tree
const maxExtractSize = 1 << 30

type githubSource struct {
	githubClient interfaces.GitHubClient
}

// NewGitHubSource creates a SourceFetcher downloading the event's commit as a zipball
func NewGitHubSource(githubClient interfaces.GitHubClient) interfaces.SourceFetcher {
	return &githubSource{
		githubClient: githubClient,
	}
}

// Fetch downloads and extracts the commit the event points at
func (s *githubSource) Fetch(ctx context.Context, ev *model.TriggerEvent) (*model.Workspace, error) {
	logger := ctxlog.From(ctx)

	if ev.Owner == "" || ev.Repo == "" || ev.CommitSHA == "" {
		return nil, goerr.New("event does not identify a commit",
			goerr.V("owner", ev.Owner),
			goerr.V("repo", ev.Repo),
			goerr.V("commit_sha", ev.CommitSHA),
		)
	}

	zipData, err := s.githubClient.DownloadZipball(ctx, ev.Owner, ev.Repo, ev.CommitSHA)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download source",
			goerr.V("repository", ev.FullName()),
			goerr.V("commit_sha", ev.CommitSHA),
		)
	}

	logger.Info("Downloaded zipball",
		"size_bytes", len(zipData),
		"repository", ev.FullName(),
		"commit_sha", ev.CommitSHA,
	)

	ws, err := extractZip(ctx, zipData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract source", goerr.V("repository", ev.FullName()))
	}

	logger.Info("Extracted zipball to temporary directory",
		"dir", ws.Dir,
		"file_count", len(ws.Files),
		"total_size_bytes", ws.Size,
	)

	return ws, nil
}

type localSource struct {
	dir string
}

// NewLocalSource creates a SourceFetcher returning an existing directory for every event
func NewLocalSource(dir string) interfaces.SourceFetcher {
	return &localSource{dir: dir}
}

// Fetch returns the configured directory; the caller keeps ownership of it
func (s *localSource) Fetch(ctx context.Context, ev *model.TriggerEvent) (*model.Workspace, error) {
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve workspace", goerr.V("dir", s.dir))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, goerr.Wrap(err, "workspace is not accessible", goerr.V("dir", abs))
	}
	if !info.IsDir() {
		return nil, goerr.New("workspace is not a directory", goerr.V("dir", abs))
	}

	return &model.Workspace{Dir: abs}, nil
}

// extractZip extracts ZIP data to a temporary directory. When the archive holds a single
// top-level directory, as GitHub zipballs do, the workspace points inside it.
func extractZip(ctx context.Context, zipData []byte) (*model.Workspace, error) {
	logger := ctxlog.From(ctx)

	tempDir, err := os.MkdirTemp("", "lintgate-source-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory")
	}

	ws, err := extractZipTo(zipData, tempDir)
	if err != nil {
		if removeErr := os.RemoveAll(tempDir); removeErr != nil {
			logger.Warn("Failed to clean up temporary directory", "temp_dir", tempDir, "error", removeErr)
		}
		return nil, err
	}

	logger.Debug("Created temporary directory", "temp_dir", tempDir)
	return ws, nil
}

func extractZipTo(zipData []byte, tempDir string) (*model.Workspace, error) {
	if err := os.Chmod(tempDir, 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to set directory permissions", goerr.V("dir", tempDir))
	}

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create zip reader")
	}

	var extractedFiles []string
	var totalSize int64
	roots := map[string]struct{}{}

	for _, file := range zipReader.File {
		totalSize += int64(file.UncompressedSize64)
		if totalSize > maxExtractSize {
			return nil, goerr.New("archive exceeds size limit", goerr.V("limit", maxExtractSize))
		}

		if err := extractFile(file, tempDir); err != nil {
			return nil, goerr.Wrap(err, "failed to extract file", goerr.V("file", file.Name))
		}

		extractedFiles = append(extractedFiles, file.Name)
		root, _, _ := strings.Cut(filepath.ToSlash(file.Name), "/")
		roots[root] = struct{}{}
	}

	dir := tempDir
	if len(roots) == 1 {
		for root := range roots {
			candidate := filepath.Join(tempDir, root)
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				dir = candidate
			}
		}
	}

	return &model.Workspace{
		Dir:     dir,
		TempDir: tempDir,
		Files:   extractedFiles,
		Size:    totalSize,
	}, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path detected", goerr.V("file", file.Name), goerr.V("dest", destPath))
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode().Perm()|0600)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, io.LimitReader(rc, maxExtractSize)); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}
