package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.mahjong.logic/internal/model"
)

// GameRecordRepository 对局记录仓库
type GameRecordRepository struct {
	db *pgxpool.Pool
}

// NewGameRecordRepository 创建对局记录仓库
func NewGameRecordRepository(db *pgxpool.Pool) *GameRecordRepository {
	return &GameRecordRepository{db: db}
}

// Save 保存对局记录
func (r *GameRecordRepository) Save(ctx context.Context, rec *model.GameRecord) (int64, error) {
	query := `
		INSERT INTO game_records (room_id, game_type, players, reason, winner_seat, winner_user_id, from_seat,
			winning_hand, winning_tile, golden, wall_remaining, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	winningHand := rec.WinningHand
	if winningHand == nil {
		winningHand = []string{}
	}

	var id int64
	err := r.db.QueryRow(ctx, query,
		rec.RoomId,
		rec.GameType,
		rec.Players,
		rec.Reason,
		rec.WinnerSeat,
		rec.WinnerUserId,
		rec.FromSeat,
		winningHand,
		rec.WinningTile,
		rec.Golden,
		rec.WallRemaining,
		rec.StartedAt,
		rec.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	rec.Id = id
	return id, nil
}

// FindByID 根据 ID 查找对局记录
func (r *GameRecordRepository) FindByID(ctx context.Context, id int64) (*model.GameRecord, error) {
	query := `
		SELECT id, room_id, game_type, players, reason, winner_seat, winner_user_id, from_seat,
			winning_hand, winning_tile, golden, wall_remaining, started_at, finished_at
		FROM game_records WHERE id = $1
	`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.GameRecord])
}

// ListByRoom 房间最近的对局记录，按结束时间倒序
func (r *GameRecordRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]*model.GameRecord, error) {
	query := `
		SELECT id, room_id, game_type, players, reason, winner_seat, winner_user_id, from_seat,
			winning_hand, winning_tile, golden, wall_remaining, started_at, finished_at
		FROM game_records WHERE room_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.GameRecord])
}
