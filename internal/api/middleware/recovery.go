package middleware

import (
	"net/http"
	"runtime/debug"

	"tradesettle/pkg/utils"
)

// Recovery - middleware восстановления после паники в handlers.
//
// Перехватывает panic, логирует stack trace и возвращает клиенту
// 500 Internal Server Error. Сервер продолжает обслуживать
// последующие запросы.
func Recovery(next http.Handler) http.Handler {
	log := utils.L().WithComponent("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("паника в обработчике",
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path),
					utils.Any("panic", err),
					utils.String("stack", string(debug.Stack())),
				)

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
