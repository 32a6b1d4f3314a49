package repository

import (
	"database/sql"
	"errors"
	"time"

	"tradesettle/internal/models"
)

// Ошибки репозитория ботов
var (
	ErrBotNotFound = errors.New("bot not found")
)

// BotRepository - работа с таблицей ai_bots
type BotRepository struct {
	db DBTX
}

// NewBotRepository создает новый экземпляр репозитория
func NewBotRepository(db *sql.DB) *BotRepository {
	return &BotRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *BotRepository) WithTx(tx *sql.Tx) *BotRepository {
	return &BotRepository{db: tx}
}

// Create создает нового бота с нулевой статистикой
func (r *BotRepository) Create(bot *models.Bot) error {
	query := `
		INSERT INTO ai_bots (name, strategy, is_active, total_profit, win_rate, total_trades, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	bot.CreatedAt = time.Now()

	return r.db.QueryRow(
		query,
		bot.Name,
		bot.Strategy,
		bot.IsActive,
		bot.TotalProfit,
		bot.WinRate,
		bot.TotalTrades,
		bot.CreatedAt,
	).Scan(&bot.ID)
}

// GetByID возвращает бота по ID
func (r *BotRepository) GetByID(id int) (*models.Bot, error) {
	query := `
		SELECT id, name, strategy, is_active, total_profit, win_rate, total_trades, created_at
		FROM ai_bots
		WHERE id = $1`

	return r.getOne(query, id)
}

// GetByIDForUpdate возвращает бота с блокировкой строки.
//
// Используется внутри транзакции расчета, чтобы инкрементальное
// обновление (total_profit, win_rate, total_trades) читало и писало
// согласованное состояние.
func (r *BotRepository) GetByIDForUpdate(id int) (*models.Bot, error) {
	query := `
		SELECT id, name, strategy, is_active, total_profit, win_rate, total_trades, created_at
		FROM ai_bots
		WHERE id = $1
		FOR UPDATE`

	return r.getOne(query, id)
}

// GetAll возвращает всех ботов
func (r *BotRepository) GetAll() ([]*models.Bot, error) {
	query := `
		SELECT id, name, strategy, is_active, total_profit, win_rate, total_trades, created_at
		FROM ai_bots
		ORDER BY id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*models.Bot
	for rows.Next() {
		bot := &models.Bot{}
		err := rows.Scan(
			&bot.ID,
			&bot.Name,
			&bot.Strategy,
			&bot.IsActive,
			&bot.TotalProfit,
			&bot.WinRate,
			&bot.TotalTrades,
			&bot.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bots, nil
}

// UpdateStats записывает новые агрегаты бота после расчета сделки
func (r *BotRepository) UpdateStats(id int, totalProfit, winRate float64, totalTrades int) error {
	query := `
		UPDATE ai_bots
		SET total_profit = $1, win_rate = $2, total_trades = $3
		WHERE id = $4`

	result, err := r.db.Exec(query, totalProfit, winRate, totalTrades, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBotNotFound
	}

	return nil
}

// getOne выполняет запрос одного бота
func (r *BotRepository) getOne(query string, args ...interface{}) (*models.Bot, error) {
	bot := &models.Bot{}
	err := r.db.QueryRow(query, args...).Scan(
		&bot.ID,
		&bot.Name,
		&bot.Strategy,
		&bot.IsActive,
		&bot.TotalProfit,
		&bot.WinRate,
		&bot.TotalTrades,
		&bot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBotNotFound
		}
		return nil, err
	}

	return bot, nil
}
