package codec

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrMalformedValue  = errors.New("malformed value")
)

// DataError raw bytes that cannot be parsed as Type
type DataError struct {
	Type string
	Data []byte
	Msg  string
}

func malformed(typ string, data []byte, format string, args ...any) error {
	return &DataError{Type: typ, Data: data, Msg: fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return ErrMalformedValue
}

func (e *DataError) Error() string {
	const prefixLen = 48
	const suffixLen = 16
	n := len(e.Data)
	switch {
	case e.Data == nil:
		return fmt.Sprintf("%v: %s: %s", ErrMalformedValue, e.Type, e.Msg)
	case n <= prefixLen+suffixLen:
		return fmt.Sprintf("%v: %s: %s: (%d) %x", ErrMalformedValue, e.Type, e.Msg, n, e.Data)
	default:
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		return fmt.Sprintf("%v: %s: %s: (%d) %x...%x", ErrMalformedValue, e.Type, e.Msg, n, p, s)
	}
}

func unsupported(tag string) error {
	return fmt.Errorf("%w %q", ErrUnsupportedType, tag)
}
