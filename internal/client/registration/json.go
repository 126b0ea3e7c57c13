package registration

import (
	"errors"

	"github.com/d60-Lab/appdata-service/internal/apperr"
)

var errEmptyPID = errors.New("response without pidUri")

// rawOrNull 原样输出已编码的 JSON，空值输出 null
type rawOrNull []byte

func (r rawOrNull) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }
