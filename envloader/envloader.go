package envloader

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load preenche uma struct com valores de variáveis de ambiente
// baseado nas tags "env", "envDefault" e "envRequired".
//
// Uma variável definida sempre sobrescreve o campo. O valor de "envDefault"
// só é aplicado quando o campo ainda está com o zero value, o que permite
// combinar Load com uma configuração carregada previamente (ex: YAML).
func Load(config interface{}) error {
	return LoadWithLookup(config, os.LookupEnv)
}

// LoadWithLookup é o Load com uma fonte de variáveis customizada.
func LoadWithLookup(config interface{}, lookup func(string) (string, bool)) error {
	val := reflect.ValueOf(config)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return &InvalidConfigError{Value: val.Type()}
	}

	return loadStruct(val.Elem(), lookup)
}

// loadStruct processa recursivamente uma struct
func loadStruct(val reflect.Value, lookup func(string) (string, bool)) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		// Structs aninhadas (exceto as que possuem tag env própria)
		if field.Kind() == reflect.Struct && fieldType.Tag.Get("env") == "" {
			if err := loadStruct(field, lookup); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := loadStruct(field.Elem(), lookup); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		value, ok := lookup(envTag)
		if !ok || value == "" {
			if !field.IsZero() {
				continue
			}
			value = fieldType.Tag.Get("envDefault")
		}

		if value == "" {
			if fieldType.Tag.Get("envRequired") == "true" && field.IsZero() {
				return &MissingVariableError{FieldName: fieldType.Name, EnvVar: envTag}
			}
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    envTag,
				Value:     value,
				Err:       err,
			}
		}
	}

	return nil
}

// setFieldValue define o valor de um campo baseado no seu tipo
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(intValue)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(uintValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return &UnsupportedTypeError{Type: field.Type()}
		}
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				slice = reflect.Append(slice, reflect.ValueOf(p).Convert(field.Type().Elem()))
			}
		}
		field.Set(slice)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}

// parseDuration aceita o formato do time.ParseDuration ("300s", "5m") ou
// um inteiro puro interpretado como segundos ("300").
func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(config interface{}) {
	if err := Load(config); err != nil {
		panic(err)
	}
}
