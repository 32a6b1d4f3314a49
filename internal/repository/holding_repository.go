package repository

import (
	"database/sql"
	"errors"
	"time"

	"tradesettle/internal/models"
)

// Ошибки репозитория холдингов
var (
	ErrHoldingNotFound = errors.New("holding not found")
)

// HoldingRepository - работа с таблицей portfolio_holdings.
//
// Холдинг существует только пока quantity > 0: при закрытии позиции
// запись удаляется, а не обнуляется. Уникальность по (user_id, symbol).
type HoldingRepository struct {
	db DBTX
}

// NewHoldingRepository создает новый экземпляр репозитория
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{db: tx}
}

// Create создает новый холдинг (первая покупка символа)
func (r *HoldingRepository) Create(holding *models.Holding) error {
	query := `
		INSERT INTO portfolio_holdings (user_id, symbol, quantity, avg_price, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	holding.UpdatedAt = time.Now()

	return r.db.QueryRow(
		query,
		holding.UserID,
		holding.Symbol,
		holding.Quantity,
		holding.AvgPrice,
		holding.UpdatedAt,
	).Scan(&holding.ID)
}

// GetByUserAndSymbol возвращает холдинг пользователя по символу
func (r *HoldingRepository) GetByUserAndSymbol(userID int, symbol string) (*models.Holding, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_price, updated_at
		FROM portfolio_holdings
		WHERE user_id = $1 AND symbol = $2`

	return r.getOne(query, userID, symbol)
}

// GetByUserAndSymbolForUpdate возвращает холдинг с блокировкой строки.
//
// Используется внутри транзакции расчета: блокировка исключает
// потерянные обновления количества при конкурентных записях.
func (r *HoldingRepository) GetByUserAndSymbolForUpdate(userID int, symbol string) (*models.Holding, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_price, updated_at
		FROM portfolio_holdings
		WHERE user_id = $1 AND symbol = $2
		FOR UPDATE`

	return r.getOne(query, userID, symbol)
}

// GetByUser возвращает все холдинги пользователя
func (r *HoldingRepository) GetByUser(userID int) ([]*models.Holding, error) {
	query := `
		SELECT id, user_id, symbol, quantity, avg_price, updated_at
		FROM portfolio_holdings
		WHERE user_id = $1
		ORDER BY symbol ASC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		holding := &models.Holding{}
		err := rows.Scan(
			&holding.ID,
			&holding.UserID,
			&holding.Symbol,
			&holding.Quantity,
			&holding.AvgPrice,
			&holding.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, holding)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

// UpdatePosition обновляет количество и среднюю цену холдинга
func (r *HoldingRepository) UpdatePosition(id int, quantity, avgPrice float64) error {
	query := `
		UPDATE portfolio_holdings
		SET quantity = $1, avg_price = $2, updated_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(query, quantity, avgPrice, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrHoldingNotFound
	}

	return nil
}

// Delete удаляет холдинг (позиция полностью закрыта)
func (r *HoldingRepository) Delete(id int) error {
	query := `DELETE FROM portfolio_holdings WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrHoldingNotFound
	}

	return nil
}

// getOne выполняет запрос одного холдинга
func (r *HoldingRepository) getOne(query string, args ...interface{}) (*models.Holding, error) {
	holding := &models.Holding{}
	err := r.db.QueryRow(query, args...).Scan(
		&holding.ID,
		&holding.UserID,
		&holding.Symbol,
		&holding.Quantity,
		&holding.AvgPrice,
		&holding.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldingNotFound
		}
		return nil, err
	}

	return holding, nil
}
