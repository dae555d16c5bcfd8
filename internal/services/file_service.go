package services

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/logger"
	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsDirectory   = errors.New("path is a directory")
	ErrFileTooLarge  = errors.New("file too large to open in the editor")
)

// MaxEditableFileSize bounds Read so huge files are not pulled into memory.
const MaxEditableFileSize = 5 << 20

// FileEntry is one row in a directory listing. Path is relative to the
// file manager root and always starts with "/".
type FileEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	IsDirectory bool      `json:"is_directory"`
	Permissions string    `json:"permissions"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// FileService is a file manager jailed to a root directory. Every path it
// accepts is interpreted relative to that root.
type FileService struct {
	db   *gorm.DB
	root string
}

func NewFileService(db *gorm.DB, root string) *FileService {
	if root == "" {
		root = "/home"
	}
	return &FileService{db: db, root: filepath.Clean(root)}
}

// resolve maps a virtual path to the real path under root.
func (s *FileService) resolve(p string) (virtual, real string) {
	virtual = filepath.ToSlash(filepath.Clean("/" + p))
	return virtual, filepath.Join(s.root, filepath.FromSlash(virtual))
}

func (s *FileService) List(dir string) ([]FileEntry, error) {
	virtual, real := s.resolve(dir)
	entries, err := os.ReadDir(real)
	if err != nil {
		return nil, mapFSError(err)
	}

	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileEntry{
			Name:        e.Name(),
			Path:        joinVirtual(virtual, e.Name()),
			Size:        info.Size(),
			IsDirectory: e.IsDir(),
			Permissions: fmt.Sprintf("%o", info.Mode().Perm()),
			ModifiedAt:  info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDirectory != out[j].IsDirectory {
			return out[i].IsDirectory
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *FileService) Read(path string) (string, error) {
	_, real := s.resolve(path)
	info, err := os.Stat(real)
	if err != nil {
		return "", mapFSError(err)
	}
	if info.IsDir() {
		return "", ErrIsDirectory
	}
	if info.Size() > MaxEditableFileSize {
		return "", ErrFileTooLarge
	}
	b, err := os.ReadFile(real)
	if err != nil {
		return "", mapFSError(err)
	}
	return string(b), nil
}

// Write replaces the content of path, creating it if needed. The parent
// directory must already exist. Existing permissions are preserved.
func (s *FileService) Write(path, content string) error {
	virtual, real := s.resolve(path)
	if virtual == "/" {
		return ErrInvalidPath
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(real); err == nil {
		if info.IsDir() {
			return ErrIsDirectory
		}
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(real, []byte(content), mode); err != nil {
		return mapFSError(err)
	}
	s.track(virtual, real)
	return nil
}

// Delete removes path, recursively for directories. The root itself cannot be removed.
func (s *FileService) Delete(path string) error {
	virtual, real := s.resolve(path)
	if virtual == "/" {
		return ErrInvalidPath
	}
	info, err := os.Stat(real)
	if err != nil {
		return mapFSError(err)
	}
	if info.IsDir() {
		err = os.RemoveAll(real)
	} else {
		err = os.Remove(real)
	}
	if err != nil {
		return mapFSError(err)
	}

	if s.db != nil {
		if err := s.db.Where("path = ? OR path LIKE ?", virtual, virtual+"/%").Delete(&models.File{}).Error; err != nil {
			logger.Log().WithError(err).WithField("path", virtual).Warn("failed to drop file metadata")
		}
	}
	return nil
}

// Mkdir creates name inside parent and returns the new virtual path.
func (s *FileService) Mkdir(parent, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidPath
	}
	parentVirtual, parentReal := s.resolve(parent)
	info, err := os.Stat(parentReal)
	if err != nil {
		return "", mapFSError(err)
	}
	if !info.IsDir() {
		return "", ErrNotADirectory
	}

	virtual := joinVirtual(parentVirtual, name)
	real := filepath.Join(parentReal, name)
	if err := os.Mkdir(real, 0o755); err != nil {
		return "", mapFSError(err)
	}
	s.track(virtual, real)
	return virtual, nil
}

// track upserts the metadata row for a path touched through the panel.
func (s *FileService) track(virtual, real string) {
	if s.db == nil {
		return
	}
	info, err := os.Stat(real)
	if err != nil {
		return
	}

	meta := models.File{
		Name:        info.Name(),
		Path:        virtual,
		Size:        info.Size(),
		IsDirectory: info.IsDir(),
		Permissions: fmt.Sprintf("%o", info.Mode().Perm()),
		ParentPath:  filepath.ToSlash(filepath.Dir(virtual)),
	}
	if !info.IsDir() {
		meta.MimeType = mime.TypeByExtension(filepath.Ext(info.Name()))
	}

	var row models.File
	err = s.db.Where(models.File{Path: virtual}).
		Assign(models.File{
			Name: meta.Name, Size: meta.Size, IsDirectory: meta.IsDirectory,
			Permissions: meta.Permissions, ParentPath: meta.ParentPath, MimeType: meta.MimeType,
		}).
		FirstOrCreate(&row).Error
	if err != nil {
		logger.Log().WithError(err).WithField("path", virtual).Warn("failed to record file metadata")
	}
}

// Metadata returns the tracked row for path.
func (s *FileService) Metadata(path string) (*models.File, error) {
	virtual, _ := s.resolve(path)
	var row models.File
	if err := s.db.Where("path = ?", virtual).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &row, nil
}

func joinVirtual(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrFileNotFound
	case errors.Is(err, syscall.ENOTDIR):
		return ErrNotADirectory
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: already exists", ErrInvalidPath)
	default:
		return err
	}
}
