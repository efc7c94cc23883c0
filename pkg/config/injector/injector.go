// Package injector resolve referências ${...} em campos string da configuração.
//
// Formatos suportados: ${env.VAR}, ${ssm./caminho/do/parametro} e
// ${secret.id-do-segredo}. O valor pode misturar texto e referências,
// ex: "redis-${env.STAGE}.internal:6379".
package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

// Regex para capturar padrões ${tipo.chave}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Fetcher busca valores remotos (SSM Parameter Store e Secrets Manager)
type Fetcher interface {
	Parameter(ctx context.Context, name string) (string, error)
	Secret(ctx context.Context, id string) (string, error)
}

type Injector struct {
	fetcher Fetcher
	lookup  func(string) (string, bool)
}

// New cria o injector. fetcher pode ser nil quando não há referências remotas.
func New(fetcher Fetcher) *Injector {
	return &Injector{fetcher: fetcher, lookup: os.LookupEnv}
}

// WithLookup troca a fonte de ${env.*} (testes)
func (i *Injector) WithLookup(lookup func(string) (string, bool)) *Injector {
	i.lookup = lookup
	return i
}

// Inject percorre target (ponteiro para struct) resolvendo as referências in-place.
func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			if err := i.injectRecursive(ctx, v.Field(k)); err != nil {
				return err
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)

		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		val, _ := i.lookup(key) // variável ausente vira vazio
		return val, nil

	case "ssm":
		if i.fetcher == nil {
			return "", fmt.Errorf("referência ${ssm.%s} sem cliente SSM configurado", key)
		}
		return i.fetcher.Parameter(ctx, key)

	case "secret":
		if i.fetcher == nil {
			return "", fmt.Errorf("referência ${secret.%s} sem cliente Secrets Manager configurado", key)
		}
		return i.fetcher.Secret(ctx, key)
	}

	return "", fmt.Errorf("tipo de referência desconhecido: %s", sourceType)
}
