package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path fills `path:"name"` fields through extractor, e.g. chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrFailedToParsePath)
		}
		values := make(map[string][]string)
		if err := eachTaggedField(v, "path", ErrFailedToParsePath, func(name string, _ reflect.StructField) {
			if val := extractor(r, name); val != "" {
				values[name] = []string{val}
			}
		}); err != nil {
			return err
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
