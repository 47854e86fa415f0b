package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RestoreService restores databases from cloud backup archives.
//
// Restores are two-phase: StageRestore downloads and verifies an archive into
// a staging directory while the system keeps running, and the staged files
// are swapped into place on the next boot, before any database is opened.
type RestoreService struct {
	r2Client *R2Client // nil when cloud backups are not configured
	dataDir  string
	log      zerolog.Logger
}

// restoreMarker records what was staged and when.
type restoreMarker struct {
	Archive   string    `json:"archive"`
	StagedAt  time.Time `json:"staged_at"`
	Databases []string  `json:"databases"`
}

const restoreMarkerFile = "restore-pending.json"

// NewRestoreService creates a new restore service. r2Client may be nil, in
// which case only the boot-time staged-restore check is available.
func NewRestoreService(r2Client *R2Client, dataDir string, log zerolog.Logger) *RestoreService {
	return &RestoreService{
		r2Client: r2Client,
		dataDir:  dataDir,
		log:      log.With().Str("service", "restore").Logger(),
	}
}

func (s *RestoreService) stagingDir() string {
	return filepath.Join(s.dataDir, "restore-staging")
}

// StageRestore downloads a backup archive from R2, extracts it into the
// staging directory and verifies every database against the checksums in the
// archive's metadata. The actual swap happens on next startup.
func (s *RestoreService) StageRestore(ctx context.Context, archiveName string) error {
	if s.r2Client == nil {
		return fmt.Errorf("cloud backups are not configured")
	}

	s.log.Info().Str("archive", archiveName).Msg("Staging restore")

	stagingDir := s.stagingDir()
	// Stale staging content from an earlier aborted attempt is discarded
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	archivePath := filepath.Join(stagingDir, archiveName)
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := s.r2Client.Download(ctx, archiveName, archiveFile); err != nil {
		archiveFile.Close()
		os.RemoveAll(stagingDir)
		return fmt.Errorf("failed to download archive: %w", err)
	}
	archiveFile.Close()

	if err := s.extractArchive(archivePath, stagingDir); err != nil {
		os.RemoveAll(stagingDir)
		return fmt.Errorf("failed to extract archive: %w", err)
	}
	os.Remove(archivePath)

	metadata, err := s.readMetadata(filepath.Join(stagingDir, "backup-metadata.json"))
	if err != nil {
		os.RemoveAll(stagingDir)
		return err
	}

	databases := make([]string, 0, len(metadata.Databases))
	for _, db := range metadata.Databases {
		stagedPath := filepath.Join(stagingDir, db.Filename)

		checksum, err := checksumFile(stagedPath)
		if err != nil {
			os.RemoveAll(stagingDir)
			return fmt.Errorf("failed to checksum %s: %w", db.Filename, err)
		}
		if checksum != db.Checksum {
			os.RemoveAll(stagingDir)
			return fmt.Errorf("checksum mismatch for %s", db.Filename)
		}

		databases = append(databases, db.Filename)
	}

	marker := restoreMarker{
		Archive:   archiveName,
		StagedAt:  time.Now().UTC(),
		Databases: databases,
	}
	if err := s.writeMarker(marker); err != nil {
		os.RemoveAll(stagingDir)
		return fmt.Errorf("failed to write restore marker: %w", err)
	}

	s.log.Info().
		Str("archive", archiveName).
		Strs("databases", databases).
		Msg("Restore staged, will be applied on next startup")

	return nil
}

// CheckPendingRestore reports whether a staged restore is waiting.
func (s *RestoreService) CheckPendingRestore() (bool, error) {
	markerPath := filepath.Join(s.stagingDir(), restoreMarkerFile)

	if _, err := os.Stat(markerPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check restore marker: %w", err)
	}

	return true, nil
}

// ExecuteStagedRestore swaps the staged database files into place. Must be
// called before any database connection is opened. The replaced files are
// kept beside the live ones with a .pre-restore suffix.
func (s *RestoreService) ExecuteStagedRestore() error {
	stagingDir := s.stagingDir()

	markerData, err := os.ReadFile(filepath.Join(stagingDir, restoreMarkerFile))
	if err != nil {
		return fmt.Errorf("failed to read restore marker: %w", err)
	}

	var marker restoreMarker
	if err := json.Unmarshal(markerData, &marker); err != nil {
		return fmt.Errorf("failed to parse restore marker: %w", err)
	}

	s.log.Warn().
		Str("archive", marker.Archive).
		Strs("databases", marker.Databases).
		Msg("Executing staged restore")

	suffix := ".pre-restore." + time.Now().Format("20060102_150405")

	for _, filename := range marker.Databases {
		stagedPath := filepath.Join(stagingDir, filename)
		livePath := filepath.Join(s.dataDir, filename)

		if _, err := os.Stat(livePath); err == nil {
			if err := os.Rename(livePath, livePath+suffix); err != nil {
				return fmt.Errorf("failed to set aside %s: %w", filename, err)
			}
		}

		// Stale WAL sidecars would shadow the restored content
		os.Remove(livePath + "-wal")
		os.Remove(livePath + "-shm")

		if err := CopyFile(stagedPath, livePath); err != nil {
			return fmt.Errorf("failed to restore %s: %w", filename, err)
		}

		s.log.Info().Str("database", filename).Msg("Database restored")
	}

	if err := os.RemoveAll(stagingDir); err != nil {
		s.log.Warn().Err(err).Msg("Failed to remove staging directory")
	}

	return nil
}

// extractArchive unpacks the tar.gz into destDir. Only flat, regular entries
// are accepted.
func (s *RestoreService) extractArchive(archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := header.Name
		if name != filepath.Base(name) || strings.Contains(name, "..") {
			return fmt.Errorf("unsafe archive entry: %s", name)
		}

		outFile, err := os.Create(filepath.Join(destDir, name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}

		if _, err := io.Copy(outFile, tarReader); err != nil {
			outFile.Close()
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
		outFile.Close()
	}

	return nil
}

func (s *RestoreService) readMetadata(path string) (*BackupMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive has no metadata file: %w", err)
	}

	var metadata BackupMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse backup metadata: %w", err)
	}

	return &metadata, nil
}

func (s *RestoreService) writeMarker(marker restoreMarker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(s.stagingDir(), restoreMarkerFile), data, 0644)
}

// checksumFile calculates the SHA256 checksum of a file in the same format
// the backup metadata uses.
func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
