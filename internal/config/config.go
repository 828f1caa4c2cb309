package config

import (
	"fmt"
	"os"
	"strings"
)

// Idiomas para los que existen mensajes de validación.
var supportedLanguages = []string{"en", "fr", "es"}

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port            string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	DefaultLanguage string
}

// Load lee variables de entorno y valida lo mínimo indispensable.
func Load() (Config, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	// Normalizamos por si alguien manda ":8080"
	port = strings.TrimPrefix(port, ":")

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, fmt.Errorf("missing required env var: DATABASE_URL")
	}

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	switch logFormat {
	case "":
		logFormat = "json"
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: expected json or console", logFormat)
	}

	language := strings.ToLower(strings.TrimSpace(os.Getenv("DEFAULT_LANGUAGE")))
	if language == "" {
		language = "en"
	}
	if !isSupportedLanguage(language) {
		return Config{}, fmt.Errorf("unsupported DEFAULT_LANGUAGE %q", language)
	}

	return Config{
		Port:            port,
		DatabaseURL:     databaseURL,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		DefaultLanguage: language,
	}, nil
}

// LoadDatabaseURL lee solo lo necesario para comandos que no levantan HTTP (ej: migrate).
func LoadDatabaseURL() (string, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return "", fmt.Errorf("missing required env var: DATABASE_URL")
	}
	return databaseURL, nil
}

func isSupportedLanguage(language string) bool {
	for _, supported := range supportedLanguages {
		if supported == language {
			return true
		}
	}
	return false
}
