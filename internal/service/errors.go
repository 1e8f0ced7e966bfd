package service

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Ошибки сервисов
var (
	ErrRunInProgress         = errors.New("запуск уже выполняется")
	ErrMissingAPIKey         = errors.New("не указан API ключ (Account Details!E1)")
	ErrLongLinkColumnMissing = errors.New("колонка \"Long Link\" не найдена")
	ErrHeaderLayoutMissing   = errors.New("колонка \"Response Code\" не найдена, пересоберите заголовки")
)

// ValidationError строка не прошла проверки; Issues в порядке проверок
type ValidationError struct {
	Row    int
	Issues []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Issues, " ")
}

// TransportError запрос к API не получил ответа.
// Code - первое число из текста ошибки, 0 если чисел нет.
type TransportError struct {
	Code int
	Err  error
}

func newTransportError(err error) *TransportError {
	return &TransportError{Code: transportCode(err), Err: err}
}

// transportCode код из текста ошибки без URL запроса (иначе "1" из "/api/v1/").
// Сетевые сбои (соединение, DNS) HTTP кода не имеют.
func transportCode(err error) int {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return 0
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return extractCode(urlErr.Err.Error())
	}
	return extractCode(err.Error())
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var codePattern = regexp.MustCompile(`\d+`)

func extractCode(msg string) int {
	m := codePattern.FindString(msg)
	if m == "" {
		return 0
	}
	code, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return code
}
