package config

import (
	"fmt"
	"os"

	"github.com/raywall/fast-todo-service/envloader"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile aponta para um YAML opcional com a configuração base
const EnvConfigFile = "CONFIG_FILE_PATH"

// Defaults devolve os valores que não podem ser expressos via envDefault.
// Booleanos verdadeiros por padrão precisam estar aqui: o envloader não
// distingue "false" explícito de zero value.
func Defaults() Config {
	return Config{
		Logging: LoggingConf{Enabled: true},
	}
}

// Load monta a configuração: Defaults, YAML (se CONFIG_FILE_PATH estiver
// definido), variáveis de ambiente e, por fim, validação.
func Load() (*Config, error) {
	return LoadWithLookup(os.LookupEnv)
}

// LoadWithLookup é o Load com uma fonte de variáveis customizada.
func LoadWithLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()

	if path, ok := lookup(EnvConfigFile); ok && path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envloader.LoadWithLookup(&cfg, lookup); err != nil {
		return nil, fmt.Errorf("falha ao carregar variáveis de ambiente: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("falha ao ler arquivo de configuração %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("falha ao decodificar YAML %s: %w", path, err)
	}
	return nil
}
