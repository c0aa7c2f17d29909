// Package jsoncodec wraps sonic with the settings countstep needs on the
// wire: standard-library compatible output and numbers decoded as
// json.Number so int64 counters survive without float rounding.
package jsoncodec

import (
	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.Config{
	EscapeHTML:       true,
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
	UseNumber:        true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return defaultConfig.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v. Trailing non-whitespace after the first
// value is an error.
func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}
