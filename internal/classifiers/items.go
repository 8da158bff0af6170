package classifiers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Batch is a request body holding either a single item or an array of items.
type Batch []json.RawMessage

// UnmarshalJSON accepts a JSON array as the item list and any other value as a
// single item.
func (b *Batch) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*b = items
		return nil
	}
	*b = Batch{json.RawMessage(bytes.Clone(trimmed))}
	return nil
}

type learnWire struct {
	Text     *string `json:"text" validate:"required"`
	Category *string `json:"category" validate:"required,min=1"`
}

type categorizeWire struct {
	Text *string `json:"text" validate:"required"`
}

// ValidateLearnItems checks every item of a learn batch and stops at the first
// malformed one. No item is returned unless the whole batch is valid.
func ValidateLearnItems(batch Batch, limit int) ([]LearnItem, error) {
	if err := checkSize(batch, limit); err != nil {
		return nil, err
	}

	items := make([]LearnItem, len(batch))
	for i, raw := range batch {
		var w learnWire
		if err := decodeItem(i, raw, &w); err != nil {
			return nil, err
		}
		items[i] = LearnItem{Text: *w.Text, Category: *w.Category}
	}
	return items, nil
}

// ValidateCategorizeItems checks every item of a categorize batch and stops at
// the first malformed one.
func ValidateCategorizeItems(batch Batch, limit int) ([]CategorizeItem, error) {
	if err := checkSize(batch, limit); err != nil {
		return nil, err
	}

	items := make([]CategorizeItem, len(batch))
	for i, raw := range batch {
		var w categorizeWire
		if err := decodeItem(i, raw, &w); err != nil {
			return nil, err
		}
		items[i] = CategorizeItem{Text: *w.Text}
	}
	return items, nil
}

// ValidateCommand checks a decoded command struct against its validate tags.
func ValidateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	return nil
}

func checkSize(batch Batch, limit int) error {
	if len(batch) == 0 {
		return fmt.Errorf("%w: batch contains no items", ErrValidation)
	}
	if limit > 0 && len(batch) > limit {
		return fmt.Errorf("%w: batch of %d items exceeds limit of %d", ErrValidation, len(batch), limit)
	}
	return nil
}

// decodeItem matches property names exactly; encoding/json alone would also
// accept "TEXT" or "Category".
func decodeItem(index int, raw json.RawMessage, dst any) error {
	exact, err := exactFields(raw, dst)
	if err == nil {
		err = json.Unmarshal(exact, dst)
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return fmt.Errorf("%w: item %d: must be an object", ErrValidation, index)
			}
			return fmt.Errorf("%w: item %d: %s must be a %s", ErrValidation, index, typeErr.Field, typeErr.Type.Kind())
		}
		return fmt.Errorf("%w: item %d: %v", ErrValidation, index, err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: item %d: %s", ErrValidation, index, describe(err))
	}
	return nil
}

// exactFields reduces an item object to the properties whose names equal one of
// dst's json tags.
func exactFields(raw json.RawMessage, dst any) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return raw, nil
	}

	kept := make(map[string]json.RawMessage, len(obj))
	t := reflect.TypeOf(dst).Elem()
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if v, ok := obj[name]; ok {
			kept[name] = v
		}
	}
	return json.Marshal(kept)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must not be empty"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
