package repository

import "database/sql"

// DBTX - общий интерфейс над *sql.DB и *sql.Tx.
//
// Позволяет репозиториям работать как напрямую с базой, так и внутри
// транзакции: репозиторий, связанный с транзакцией, получается через WithTx.
// Все записи расчета одной сделки (статус + холдинг + статистика бота)
// выполняются в одной транзакции.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Проверяем, что стандартные типы реализуют интерфейс
var _ DBTX = (*sql.DB)(nil)
var _ DBTX = (*sql.Tx)(nil)
