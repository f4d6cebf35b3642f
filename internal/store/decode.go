package store

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode maps a Row (or a slice of rows, or any nested value taken from a
// row) onto out, which must be a pointer.
func Decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("error creating decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("error decoding row: %w", err)
	}

	return nil
}
