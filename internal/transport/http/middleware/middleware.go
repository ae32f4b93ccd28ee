// middleware: net/http мидлвары HTTP-транспорта: request id, логирование,
// recover, таймаут и проверка bearer-токенов.
package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Chain оборачивает h так, что первый мидлвар в списке становится внешним.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// responseMeta запоминает код ответа и число записанных байт тела.
// Учитывается только первый WriteHeader, как и в net/http.
type responseMeta struct {
	http.ResponseWriter
	code int
	size int
}

func wrapResponse(w http.ResponseWriter) *responseMeta {
	return &responseMeta{ResponseWriter: w}
}

func (m *responseMeta) WriteHeader(code int) {
	if m.code == 0 {
		m.code = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeta) Write(p []byte) (int, error) {
	if m.code == 0 {
		m.code = http.StatusOK
	}

	n, err := m.ResponseWriter.Write(p)
	m.size += n
	return n, err
}

// StatusCode: записанный код; 200, если обработчик ничего не отправил.
func (m *responseMeta) StatusCode() int {
	if m.code == 0 {
		return http.StatusOK
	}
	return m.code
}

// Unwrap нужен http.ResponseController.
func (m *responseMeta) Unwrap() http.ResponseWriter { return m.ResponseWriter }
