package main

import (
	"errors"
	"fmt"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

type errorKind int

const (
	kindUnknown errorKind = iota
	kindEmptyInput
	kindNoFileSelected
	kindUnsupportedFormat
	kindNoExtractableText
	kindExtractionFailed
	kindConnection
	kindTimeout
	kindBackend
	kindInvalidResponse
	kindClipboard
)

var kindNames = map[errorKind]string{
	kindUnknown:           "unknown",
	kindEmptyInput:        "empty_input",
	kindNoFileSelected:    "no_file_selected",
	kindUnsupportedFormat: "unsupported_format",
	kindNoExtractableText: "no_extractable_text",
	kindExtractionFailed:  "extraction_failed",
	kindConnection:        "connection_error",
	kindTimeout:           "timeout",
	kindBackend:           "backend_error",
	kindInvalidResponse:   "invalid_response",
	kindClipboard:         "clipboard_error",
}

func (k errorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[kindUnknown]
}

// classifyError is the one error type surfaced to the user. msg is the
// user-facing text; err is the underlying cause, if any.
type classifyError struct {
	kind   errorKind
	msg    string
	status int // HTTP status for kindBackend
	err    error
}

func (e *classifyError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *classifyError) Unwrap() error { return e.err }

func (e *classifyError) Kind() errorKind { return e.kind }

const (
	msgEmptyInput        = "Insira um texto para analisar."
	msgNoFileSelected    = "Selecione um arquivo PDF ou TXT para analisar."
	msgUnsupportedFormat = "Formato não suportado. Use um arquivo PDF ou TXT."
	msgNoExtractableText = "Não foi possível extrair texto do arquivo (provável PDF escaneado/imagem)."
	msgExtractionFailed  = "Erro ao extrair texto do arquivo."
	msgConnection        = "Falha de conexão com a API. Verifique se o backend está rodando."
	msgTimeout           = "A API demorou demais para responder. Verifique o backend e tente novamente."
	msgInvalidResponse   = "Resposta inválida da API."
	msgClipboard         = "Não foi possível copiar automaticamente. Copie manualmente."
)

func newError(kind errorKind, msg string, err error) *classifyError {
	return &classifyError{kind: kind, msg: msg, err: err}
}

func errEmptyInput() error        { return newError(kindEmptyInput, msgEmptyInput, nil) }
func errNoFileSelected() error    { return newError(kindNoFileSelected, msgNoFileSelected, nil) }
func errNoExtractableText() error { return newError(kindNoExtractableText, msgNoExtractableText, nil) }

func errUnsupportedFormat(name string) error {
	return newError(kindUnsupportedFormat, msgUnsupportedFormat, fmt.Errorf("file %q", name))
}

func errExtractionFailed(err error) error {
	return newError(kindExtractionFailed, msgExtractionFailed, err)
}

func errConnection(err error) error { return newError(kindConnection, msgConnection, err) }
func errTimeout(err error) error    { return newError(kindTimeout, msgTimeout, err) }
func errClipboard(err error) error  { return newError(kindClipboard, msgClipboard, err) }

func errInvalidResponse(err error) error {
	return newError(kindInvalidResponse, msgInvalidResponse, err)
}

// errBackend carries the message shown to the user: the backend-provided
// detail when present, otherwise "Erro <status>".
func errBackend(status int, detail string) error {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("Erro %d", status)
	}
	return &classifyError{kind: kindBackend, msg: msg, status: status}
}

// errorKindOf returns the kind of the first classifyError in err's chain.
func errorKindOf(err error) errorKind {
	var ce *classifyError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return kindUnknown
}

// userMessage maps any error to the text shown in the error box.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *classifyError
	if errors.As(err, &ce) {
		return ce.msg
	}
	return "Erro inesperado: " + err.Error()
}
