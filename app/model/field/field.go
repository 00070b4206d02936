package field

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Status int

const (
	StatusEnable  Status = 1
	StatusDisable Status = 2
)

func (s Status) IsEnable() bool {
	return s == StatusEnable
}

func (s Status) IsDisable() bool {
	return s == StatusDisable
}

// Slices 以json格式存储的切片字段
type Slices[T any] []T

func (s Slices[T]) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *Slices[T]) Scan(value interface{}) error {
	var b []byte
	switch value := value.(type) {
	case []byte:
		b = value
	case string:
		b = []byte(value)
	default:
		return fmt.Errorf("unable to scan %T into Slices", value)
	}
	if len(b) == 0 {
		*s = make([]T, 0)
		return nil
	}
	return json.Unmarshal(b, s)
}
