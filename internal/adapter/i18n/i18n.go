package i18n

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/murattal/recite/internal/domain"
	"gopkg.in/yaml.v3"
)

type I18n struct {
	translations map[domain.Language]map[string]string
}

type translationFile struct {
	Messages map[string]string `yaml:"messages"`
}

func NewI18n(localesDir string) (*I18n, error) {
	i18n := &I18n{
		translations: make(map[domain.Language]map[string]string),
	}

	// Load all translation files
	languages := []domain.Language{domain.LangEnglish, domain.LangArabic, domain.LangRussian}
	for _, lang := range languages {
		filename := filepath.Join(localesDir, string(lang)+".yaml")
		if err := i18n.loadTranslations(lang, filename); err != nil {
			return nil, fmt.Errorf("load %s translations: %w", lang, err)
		}
	}

	return i18n, nil
}

func (i *I18n) loadTranslations(lang domain.Language, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var tf translationFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}

	i.translations[lang] = tf.Messages

	return nil
}

// Get retrieves a translated message
func (i *I18n) Get(lang domain.Language, key string, args ...interface{}) string {
	translations, ok := i.translations[lang]
	if !ok {
		translations = i.translations[domain.LangEnglish]
	}

	msg, ok := translations[key]
	if !ok {
		return key
	}

	// Simple formatting support
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	return msg
}
