// Package messages resuelve claves de validación a texto localizado.
// Las traducciones viven en langs/<idioma>.json y se embeben en el binario.
package messages

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed langs/*.json
var langsFS embed.FS

// Catalog es un lookup clave → mensaje por idioma.
type Catalog struct {
	fallback string
	tags     []language.Tag
	matcher  language.Matcher
	byLang   map[string]map[string]string
}

// Load lee las traducciones embebidas. fallback debe ser uno de los idiomas disponibles.
func Load(fallback string) (*Catalog, error) {
	return LoadFS(langsFS, "langs", fallback)
}

// LoadFS lee todos los <idioma>.json de dir dentro de fsys.
func LoadFS(fsys fs.FS, dir, fallback string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	catalog := &Catalog{byLang: make(map[string]map[string]string)}

	// El fallback va primero: el matcher lo usa cuando no hay coincidencia.
	var tags []language.Tag
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		lang := strings.TrimSuffix(entry.Name(), ".json")

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var table map[string]string
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("messages: %s: %w", entry.Name(), err)
		}

		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("messages: %s: %w", entry.Name(), err)
		}

		catalog.byLang[lang] = table
		if lang == fallback {
			tags = append([]language.Tag{tag}, tags...)
		} else {
			tags = append(tags, tag)
		}
	}

	if _, ok := catalog.byLang[fallback]; !ok {
		return nil, fmt.Errorf("messages: fallback language %q not available", fallback)
	}

	catalog.fallback = fallback
	catalog.tags = tags
	catalog.matcher = language.NewMatcher(tags)
	return catalog, nil
}

// Match elige el idioma disponible más cercano a un header Accept-Language.
func (catalog *Catalog) Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return catalog.fallback
	}
	requested, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(requested) == 0 {
		return catalog.fallback
	}
	_, index, confidence := catalog.matcher.Match(requested...)
	if confidence == language.No {
		return catalog.fallback
	}
	base, _ := catalog.tags[index].Base()
	return base.String()
}

// Lookup devuelve el mensaje para key. Si falta en lang, prueba el fallback;
// si tampoco existe devuelve la clave tal cual.
func (catalog *Catalog) Lookup(lang, key string) string {
	if table, ok := catalog.byLang[lang]; ok {
		if message, ok := table[key]; ok {
			return message
		}
	}
	if message, ok := catalog.byLang[catalog.fallback][key]; ok {
		return message
	}
	return key
}
