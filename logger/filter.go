// Package logger provides filtering capabilities for sensitive data in log output.
package logger

import (
	"net/url"
	"reflect"
	"strings"
	"unsafe"
)

const (
	// DefaultMaskValue replaces sensitive values in log output
	DefaultMaskValue = "***"
	// DefaultMaxDepth is the maximum recursion depth when filtering nested values
	DefaultMaxDepth = 8
)

// FilterConfig defines the configuration for sensitive data filtering
type FilterConfig struct {
	// SensitiveFields contains field names that should be masked in logs.
	// Matching is case-insensitive and by substring, so "key" also catches
	// header names like "X-Api-Key".
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns a configuration covering the credential-bearing
// field and header names an HTTP client is likely to log.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "key", "api_key", "apikey",
			"token", "access_token", "refresh_token", "bearer",
			"auth", "authorization",
			"cookie", "set-cookie",
			"credential", "credentials",
			"proxy_url",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive values before they reach log output
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a new filter with the given configuration
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString filters sensitive data from string values
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterValue filters sensitive data from arbitrary values, walking maps,
// slices and structs up to DefaultMaxDepth with cycle detection.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	visited := make(map[uintptr]struct{})
	return f.filterValue(key, value, visited, DefaultMaxDepth)
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterValue(key string, value any, visited map[uintptr]struct{}, maxDepth int) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}

	if value == nil {
		return nil
	}

	if maxDepth <= 0 {
		return value
	}

	return f.filterByType(key, value, visited, maxDepth)
}

func (f *SensitiveDataFilter) filterByType(key string, value any, visited map[uintptr]struct{}, maxDepth int) any {
	// Typed map is the common case for structured log payloads
	if m, ok := value.(map[string]any); ok {
		return f.filterStringMap(m, visited, maxDepth)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return f.filterSliceOrArray(key, rv, visited, maxDepth)
	case reflect.Struct:
		return f.filterStruct(value, visited, maxDepth)
	case reflect.Pointer:
		if !rv.IsNil() && rv.Type().Elem().Kind() == reflect.Struct {
			return f.filterStruct(value, visited, maxDepth)
		}
		return value
	default:
		return value
	}
}

func (f *SensitiveDataFilter) filterStringMap(m map[string]any, visited map[uintptr]struct{}, maxDepth int) map[string]any {
	filtered := make(map[string]any, len(m))
	for k, v := range m {
		filtered[k] = f.filterValue(k, v, visited, maxDepth-1)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterSliceOrArray(key string, rv reflect.Value, visited map[uintptr]struct{}, maxDepth int) any {
	if rv.CanAddr() {
		ptr := uintptr(unsafe.Pointer(rv.UnsafeAddr()))
		if _, exists := visited[ptr]; exists {
			return rv.Interface()
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
	}

	length := rv.Len()
	filtered := make([]any, length)
	hasChanges := false

	for i := range length {
		elemVal := rv.Index(i)
		elem := elemVal.Interface()

		var filteredElem any
		if isStructType(elemVal.Type()) {
			filteredElem = f.filterStruct(elem, visited, maxDepth-1)
			hasChanges = true // struct filtering always produces a map
		} else {
			filteredElem = f.filterValue(key, elem, visited, maxDepth-1)
			if filteredElem != elem {
				hasChanges = true
			}
		}
		filtered[i] = filteredElem
	}

	// Preserve the original slice type when nothing was masked
	if !hasChanges {
		return rv.Interface()
	}

	return filtered
}

func isStructType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct || (t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lowerFieldName := strings.ToLower(fieldName)
	for _, sensitiveField := range f.config.SensitiveFields {
		if strings.Contains(lowerFieldName, strings.ToLower(sensitiveField)) {
			return true
		}
	}
	return false
}

func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}

	// URLs keep their structure; only embedded credentials are masked
	if isFilterableURL(value) {
		return f.maskURL(value)
	}

	return f.config.MaskValue
}

func isFilterableURL(value string) bool {
	return strings.HasPrefix(value, "http://") ||
		strings.HasPrefix(value, "https://") ||
		strings.HasPrefix(value, "ws://") ||
		strings.HasPrefix(value, "wss://")
}

func (f *SensitiveDataFilter) maskURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return f.config.MaskValue
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			return f.buildMaskedURL(parsed, parsed.User.Username())
		}
	}

	return urlStr
}

func (f *SensitiveDataFilter) buildMaskedURL(parsed *url.URL, username string) string {
	var b strings.Builder

	b.WriteString(parsed.Scheme)
	b.WriteString("://")

	b.WriteString(username)
	b.WriteByte(':')
	b.WriteString(f.config.MaskValue)
	b.WriteByte('@')
	b.WriteString(parsed.Host)

	if p := parsed.EscapedPath(); p != "" {
		b.WriteString(p)
	}
	if q := parsed.RawQuery; q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if frag := parsed.Fragment; frag != "" {
		b.WriteByte('#')
		b.WriteString(frag)
	}

	return b.String()
}

func (f *SensitiveDataFilter) filterStruct(value any, visited map[uintptr]struct{}, maxDepth int) any {
	if value == nil {
		return nil
	}

	if maxDepth <= 0 {
		return value
	}

	structVal, structType, ptr := extractStructValue(value)
	if !structVal.IsValid() {
		return value
	}

	if ptr != 0 {
		if _, exists := visited[ptr]; exists {
			return value
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
	}

	return f.buildFilteredStructMap(structVal, structType, visited, maxDepth)
}

// extractStructValue dereferences pointers down to the struct value and
// returns a pointer usable for cycle detection.
func extractStructValue(value any) (reflect.Value, reflect.Type, uintptr) {
	val := reflect.ValueOf(value)
	typ := reflect.TypeOf(value)
	var trackingPtr uintptr

	for typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return reflect.Value{}, nil, 0
		}

		if trackingPtr == 0 {
			trackingPtr = val.Pointer()
		}

		val = val.Elem()
		typ = typ.Elem()
	}

	if trackingPtr == 0 && val.CanAddr() {
		trackingPtr = uintptr(unsafe.Pointer(val.UnsafeAddr()))
	}

	if typ.Kind() != reflect.Struct {
		return reflect.Value{}, nil, 0
	}

	return val, typ, trackingPtr
}

func (f *SensitiveDataFilter) buildFilteredStructMap(structVal reflect.Value, structType reflect.Type, visited map[uintptr]struct{}, maxDepth int) map[string]any {
	result := make(map[string]any, structVal.NumField())

	for i := 0; i < structVal.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structVal.Field(i)

		if !field.IsExported() || !fieldValue.CanInterface() {
			continue
		}

		fieldName := structFieldName(&field)
		if fieldName == "" {
			continue
		}

		result[fieldName] = f.filterValue(fieldName, fieldValue.Interface(), visited, maxDepth-1)
	}

	return result
}

// structFieldName resolves the logged name of a struct field, preferring json
// tags. An empty result means the field is skipped.
func structFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")

	if tag == "-" {
		return ""
	}

	if tag == "" {
		return field.Name
	}

	if idx := strings.Index(tag, ","); idx != -1 {
		fieldName := tag[:idx]
		if fieldName == "" {
			return field.Name
		}
		return fieldName
	}

	return tag
}
