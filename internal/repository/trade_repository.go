package repository

import (
	"database/sql"
	"errors"
	"time"

	"tradesettle/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTradeAlreadyClaimed = errors.New("trade already claimed")
)

// tradeColumns - список колонок таблицы trades в порядке сканирования
const tradeColumns = `id, user_id, bot_id, symbol, market, side, quantity, entry_price, status, profit_loss, settle_price, error_message, created_at, settled_at`

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db DBTX
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *TradeRepository) WithTx(tx *sql.Tx) *TradeRepository {
	return &TradeRepository{db: tx}
}

// Create записывает новую сделку в журнал со статусом pending
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (user_id, bot_id, symbol, market, side, quantity, entry_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	trade.Status = models.TradeStatusPending
	trade.CreatedAt = time.Now()

	return r.db.QueryRow(
		query,
		trade.UserID,
		trade.BotID,
		trade.Symbol,
		trade.Market,
		trade.Side,
		trade.Quantity,
		trade.EntryPrice,
		trade.Status,
		trade.CreatedAt,
	).Scan(&trade.ID)
}

// GetByID возвращает сделку по ID
func (r *TradeRepository) GetByID(id int) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetPending возвращает все нерассчитанные сделки, старые - первыми.
//
// Порядок важен: более ранние сделки по одному символу должны
// рассчитываться раньше, потому что средневзвешенная цена холдинга
// зависит от порядка применения сделок.
func (r *TradeRepository) GetPending() ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE status = $1
		ORDER BY created_at ASC`

	return r.queryTrades(query, models.TradeStatusPending)
}

// GetByStatus возвращает сделки с определенным статусом, новые - первыми
func (r *TradeRepository) GetByStatus(status string, limit int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryTrades(query, status, limit)
}

// GetRecent возвращает последние N сделок
func (r *TradeRepository) GetRecent(limit int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		ORDER BY created_at DESC
		LIMIT $1`

	return r.queryTrades(query, limit)
}

// Claim захватывает pending сделку для расчета (pending -> processing).
//
// Условный UPDATE защищает от двойного расчета при параллельных запусках:
// если два процесса прочитали одну и ту же pending сделку, захват
// удастся только одному. Возвращает ErrTradeAlreadyClaimed, если сделка
// уже захвачена или рассчитана.
func (r *TradeRepository) Claim(id int) error {
	query := `
		UPDATE trades
		SET status = $1
		WHERE id = $2 AND status = $3`

	result, err := r.db.Exec(query, models.TradeStatusProcessing, id, models.TradeStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeAlreadyClaimed
	}

	return nil
}

// MarkCompleted фиксирует итог расчета: статус, PNL и цену расчета
func (r *TradeRepository) MarkCompleted(id int, profitLoss, settlePrice float64, settledAt time.Time) error {
	query := `
		UPDATE trades
		SET status = $1, profit_loss = $2, settle_price = $3, settled_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(query, models.TradeStatusCompleted, profitLoss, settlePrice, settledAt, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// MarkFailed помечает сделку как неудавшуюся с сообщением об ошибке
func (r *TradeRepository) MarkFailed(id int, errorMessage string) error {
	query := `
		UPDATE trades
		SET status = $1, error_message = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, models.TradeStatusFailed, errorMessage, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// CountByStatus возвращает количество сделок с определенным статусом
func (r *TradeRepository) CountByStatus(status string) (int, error) {
	query := `SELECT COUNT(*) FROM trades WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, status).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// queryTrades выполняет запрос и сканирует список сделок
func (r *TradeRepository) queryTrades(query string, args ...interface{}) ([]*models.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade сканирует одну строку таблицы trades.
//
// error_message заполняется только при неудачном расчете, поэтому
// у свежих сделок колонка может быть NULL - читаем через NullString.
func scanTrade(row rowScanner) (*models.Trade, error) {
	trade := &models.Trade{}
	var errorMessage sql.NullString
	err := row.Scan(
		&trade.ID,
		&trade.UserID,
		&trade.BotID,
		&trade.Symbol,
		&trade.Market,
		&trade.Side,
		&trade.Quantity,
		&trade.EntryPrice,
		&trade.Status,
		&trade.ProfitLoss,
		&trade.SettlePrice,
		&errorMessage,
		&trade.CreatedAt,
		&trade.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	trade.ErrorMessage = errorMessage.String
	return trade, nil
}
