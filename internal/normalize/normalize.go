// Package normalize приводит гибкий клиентский ввод (число, строка, массив, объект)
// к каноническим значениям задачи: бюджету, награде, дедлайну и охвату.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"quashMarket/internal/models/task"

	"github.com/spf13/cast"
)

// FieldError - ошибка валидации конкретного поля
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("поле '%s': %s", e.Field, e.Reason)
}

func fieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

var errNotNumber = errors.New("не число")

const (
	reasonRequired = "обязательное поле"
)

// Range нормализует бюджет задачи.
// Число или числовая строка -> {0, n}; массив -> {первый, последний};
// объект -> {min, max} с запасными ключами "0"/"1". Перевёрнутая пара меняется местами.
// Пустой ввод: ошибка, если поле обязательно, иначе (nil, nil).
func Range(input any, required bool) (*task.Range, error) {
	if isAbsent(input) {
		if required {
			return nil, fieldError("range", reasonRequired)
		}
		return nil, nil
	}

	input = decodeJSONString(input)

	var min, max float64
	var err error

	switch v := input.(type) {
	case task.Range:
		min, max = v.Min, v.Max
	case *task.Range:
		min, max = v.Min, v.Max
	case map[string]any:
		min, err = toNumber(firstPresent(v, 0, "min", "0"))
		if err != nil {
			return nil, fieldError("range", "должен содержать корректные числа")
		}
		maxRaw := firstPresent(v, nil, "max", "1")
		if maxRaw == nil {
			max = min
		} else if max, err = toNumber(maxRaw); err != nil {
			return nil, fieldError("range", "должен содержать корректные числа")
		}
	default:
		rv := reflect.ValueOf(input)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Len() == 0 {
				return nil, fieldError("range", "массив не может быть пустым")
			}
			min, err = toNumber(rv.Index(0).Interface())
			if err == nil {
				max, err = toNumber(rv.Index(rv.Len() - 1).Interface())
			}
			if err != nil {
				return nil, fieldError("range", "должен содержать корректные числа")
			}
			break
		}

		n, err := toNumber(input)
		if err != nil {
			return nil, fieldError("range", "должен быть числом")
		}
		min, max = 0, n
	}

	if min > max {
		min, max = max, min
	}
	return &task.Range{Min: min, Max: max}, nil
}

// Reward нормализует награду: конечное неотрицательное число
func Reward(input any, required bool) (*float64, error) {
	return number("reward", input, required, func(n float64) string {
		if n < 0 {
			return "не может быть отрицательным"
		}
		return ""
	})
}

// Amount нормализует сумму предложения: строго положительное число
func Amount(input any, required bool) (*float64, error) {
	return number("amount", input, required, func(n float64) string {
		if n <= 0 {
			return "должна быть больше нуля"
		}
		return ""
	})
}

func number(field string, input any, required bool, check func(float64) string) (*float64, error) {
	if isAbsent(input) {
		if required {
			return nil, fieldError(field, reasonRequired)
		}
		return nil, nil
	}
	n, err := toNumber(input)
	if err != nil {
		return nil, fieldError(field, "должно быть числом")
	}
	if reason := check(n); reason != "" {
		return nil, fieldError(field, reason)
	}
	return &n, nil
}

// допустимые даты в миллисекундах unix-времени: годы 1..9999
var (
	minDeadlineMillis = float64(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	maxDeadlineMillis = float64(time.Date(9999, 12, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli())
)

// Deadline нормализует дату. Числа трактуются как миллисекунды unix-времени.
func Deadline(field string, input any, required bool) (*time.Time, error) {
	if t, ok := input.(time.Time); ok && t.IsZero() {
		input = nil
	}
	if t, ok := input.(*time.Time); ok && (t == nil || t.IsZero()) {
		input = nil
	}
	if isAbsent(input) {
		if required {
			return nil, fieldError(field, reasonRequired)
		}
		return nil, nil
	}

	var parsed time.Time
	var err error

	switch v := input.(type) {
	case time.Time:
		parsed = v
	case *time.Time:
		parsed = *v
	case string:
		parsed, err = cast.ToTimeE(strings.TrimSpace(v))
	case json.Number, float32, float64, int, int32, int64, uint, uint32, uint64:
		var ms float64
		ms, err = toNumber(v)
		if err == nil {
			if ms != math.Trunc(ms) || ms < minDeadlineMillis || ms > maxDeadlineMillis {
				err = errNotNumber
			} else {
				parsed = time.UnixMilli(int64(ms)).UTC()
			}
		}
	default:
		err = errNotNumber
	}

	if err != nil || parsed.IsZero() || parsed.Year() < 1 || parsed.Year() > 9999 {
		return nil, fieldError(field, "некорректная дата")
	}
	return &parsed, nil
}

// Title обрезает пробелы; пустой заголовок недопустим, если он передан или обязателен
func Title(input *string, required bool) (*string, error) {
	if input == nil {
		if required {
			return nil, fieldError("title", reasonRequired)
		}
		return nil, nil
	}
	title := strings.TrimSpace(*input)
	if title == "" {
		return nil, fieldError("title", "не может быть пустым")
	}
	return &title, nil
}

// SanitizeReach возвращает fallback для любого значения вне {local, regional, global}
func SanitizeReach(input string, fallback task.Reach) task.Reach {
	reach := task.Reach(strings.TrimSpace(input))
	if reach.Valid() {
		return reach
	}
	return fallback
}

func isAbsent(input any) bool {
	switch v := input.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.RawMessage:
		s := strings.TrimSpace(string(v))
		return s == "" || s == "null"
	}
	return false
}

// строки вида "[100, 500]" или "{\"min\":1}" приходят из multipart-форм
func decodeJSONString(input any) any {
	if raw, ok := input.(json.RawMessage); ok {
		input = string(raw)
	}
	s, ok := input.(string)
	if !ok {
		return input
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "\"") {
		return s
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}

func firstPresent(m map[string]any, fallback any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return fallback
}

func toNumber(v any) (float64, error) {
	if v == nil {
		return 0, errNotNumber
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errNotNumber
		}
		v = s
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errNotNumber
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotNumber
	}
	return n, nil
}
