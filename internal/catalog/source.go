package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Serafin06/DeclarationGenerator/internal"
)

// Source produces a fresh catalog snapshot.
type Source interface {
	Load(ctx context.Context) (*Data, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Data, error)

func (f SourceFunc) Load(ctx context.Context) (*Data, error) { return f(ctx) }

const (
	FileMaterials  = "materials"
	FileSubstances = "substances"
	FileDualUse    = "dual_use"
	FileTextsPL    = "texts_pl"
	FileTextsEN    = "texts_en"
)

var extensions = []string{".json", ".yaml", ".yml"}

// FileSource reads the catalog from JSON or YAML files in one directory.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) Load(ctx context.Context) (*Data, error) {
	data := NewData()
	if err := s.readRequired(ctx, FileMaterials, &data.Materials); err != nil {
		return nil, err
	}
	if err := s.readRequired(ctx, FileSubstances, &data.Substances); err != nil {
		return nil, err
	}
	if err := s.readRequired(ctx, FileDualUse, &data.DualUse); err != nil {
		return nil, err
	}
	for lang, base := range map[string]string{"pl": FileTextsPL, "en": FileTextsEN} {
		texts := map[string]any{}
		found, err := s.read(ctx, base, &texts)
		if err != nil {
			return nil, err
		}
		if found {
			data.Texts[lang] = texts
		}
	}
	data.LoadedAt = time.Now().UTC()
	return data, nil
}

// Path returns the file that backs base, preferring an existing file and
// falling back to the JSON name.
func (s *FileSource) Path(base string) string {
	for _, ext := range extensions {
		p := filepath.Join(s.Dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(s.Dir, base+".json")
}

func (s *FileSource) SaveSubstances(records map[string]internal.SubstanceRecord) error {
	return s.write(FileSubstances, records)
}

func (s *FileSource) SaveDualUse(records map[string]internal.DualUseRecord) error {
	return s.write(FileDualUse, records)
}

func (s *FileSource) SaveTexts(lang string, texts map[string]any) error {
	switch lang {
	case "pl":
		return s.write(FileTextsPL, texts)
	case "en":
		return s.write(FileTextsEN, texts)
	default:
		return fmt.Errorf("unknown texts language %q", lang)
	}
}

func (s *FileSource) readRequired(ctx context.Context, base string, out any) error {
	found, err := s.read(ctx, base, out)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("missing catalog file %s.{json,yaml} in %s: %w", base, s.Dir, fs.ErrNotExist)
	}
	return nil
}

func (s *FileSource) read(ctx context.Context, base string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, ext := range extensions {
		path := filepath.Join(s.Dir, base+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", path, err)
		}
		if ext == ".json" {
			err = json.Unmarshal(raw, out)
		} else {
			err = yaml.Unmarshal(raw, out)
		}
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", path, err)
		}
		return true, nil
	}
	return false, nil
}

func (s *FileSource) write(base string, value any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := s.Path(base)
	var (
		raw []byte
		err error
	)
	if strings.HasSuffix(path, ".json") {
		raw, err = json.MarshalIndent(value, "", "  ")
	} else {
		raw, err = yaml.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
