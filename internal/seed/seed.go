package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"quashMarket/internal/service"

	"gopkg.in/yaml.v3"
)

type categoryFile struct {
	Categories []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
}

// LoadCategories читает список категорий из YAML файла
func LoadCategories(path string) ([]service.CategoryInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	return DecodeCategories(file)
}

func DecodeCategories(r io.Reader) ([]service.CategoryInput, error) {
	var parsed categoryFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		if err == io.EOF {
			return []service.CategoryInput{}, nil
		}
		return nil, fmt.Errorf("ошибка парсинга категорий: %w", err)
	}

	result := make([]service.CategoryInput, 0, len(parsed.Categories))
	for i, c := range parsed.Categories {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			return nil, fmt.Errorf("категория #%d: пустое название", i+1)
		}
		description := strings.TrimSpace(c.Description)
		result = append(result, service.CategoryInput{Title: &title, Description: &description})
	}
	return result, nil
}
