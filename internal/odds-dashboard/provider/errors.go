package provider

import (
	"fmt"
	"strings"
)

// FetchError descreve a falha de coleta de uma SportKey
// (rede, timeout, status não-2xx ou corpo inválido)
type FetchError struct {
	SportKey   string
	StatusCode int // 0 quando não houve resposta HTTP
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http %d: %v", e.SportKey, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.SportKey, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// BatchError agrega as falhas da política best-effort
type BatchError struct {
	Failed []*FetchError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d sport key(s) failed: %s", len(e.Failed), strings.Join(msgs, "; "))
}

// Keys retorna as SportKeys que falharam, na ordem de configuração
func (e *BatchError) Keys() []string {
	keys := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		keys[i] = f.SportKey
	}
	return keys
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}
