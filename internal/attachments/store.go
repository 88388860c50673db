package attachments

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"quashMarket/internal/logger"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var ErrEmptyFile = errors.New("пустой файл")
var ErrTooLarge = errors.New("файл превышает допустимый размер")

// Store - локальное хранилище вложений. Возвращает непрозрачные ссылки вида
// attachments/<uuid>-<name>, которые сохраняются в задаче.
type Store struct {
	fs      afero.Fs
	dir     string
	maxSize int64
}

func NewStore(fs afero.Fs, dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		dir = "attachments"
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога вложений: %w", err)
	}
	return &Store{fs: fs, dir: dir, maxSize: maxSize}, nil
}

// Save сохраняет один файл и возвращает его ссылку
func (s *Store) Save(name string, r io.Reader) (string, error) {
	name = sanitizeName(name)
	ref := path.Join("attachments", uuid.NewString()+"-"+name)
	target := filepath.Join(s.dir, filepath.Base(ref))

	f, err := s.fs.Create(target)
	if err != nil {
		return "", fmt.Errorf("создание файла: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("запись файла: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("закрытие файла: %w", closeErr)
	case n == 0:
		err = ErrEmptyFile
	case s.maxSize > 0 && n > s.maxSize:
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(target)
		return "", err
	}
	return ref, nil
}

// SaveAll сохраняет файлы из multipart-формы. При ошибке уже записанные файлы удаляются.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := s.saveHeader(fh)
		if err != nil {
			s.Remove(refs)
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Store) saveHeader(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("открытие файла: %w", err)
	}
	defer f.Close()
	return s.Save(fh.Filename, f)
}

// Remove удаляет файлы по ссылкам; ошибки только логируются
func (s *Store) Remove(refs []string) {
	for _, ref := range refs {
		target := filepath.Join(s.dir, filepath.Base(ref))
		if err := s.fs.Remove(target); err != nil {
			logger.Warn("Attachments: Не удалось удалить файл",
				zap.String("ref", ref),
				zap.Error(err))
		}
	}
}

// Exists - есть ли файл для ссылки
func (s *Store) Exists(ref string) bool {
	ok, err := afero.Exists(s.fs, filepath.Join(s.dir, filepath.Base(ref)))
	return err == nil && ok
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 32 || strings.ContainsRune(`/:*?"<>|`, r):
			return -1
		default:
			return r
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
