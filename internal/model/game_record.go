package model

import "time"

// GameRecord 对局记录，每局结束写入一行
type GameRecord struct {
	Id            int64     `json:"id" db:"id"`
	RoomId        string    `json:"roomId" db:"room_id"`
	GameType      string    `json:"gameType" db:"game_type"`
	Players       []int64   `json:"players" db:"players"` // 按座位顺序
	Reason        string    `json:"reason" db:"reason"`
	WinnerSeat    int       `json:"winnerSeat" db:"winner_seat"` // 无胜者时为 -1
	WinnerUserId  int64     `json:"winnerUserId" db:"winner_user_id"`
	FromSeat      int       `json:"fromSeat" db:"from_seat"` // 点炮者，自摸或荒庄时为 -1
	WinningHand   []string  `json:"winningHand" db:"winning_hand"`
	WinningTile   string    `json:"winningTile" db:"winning_tile"`
	Golden        string    `json:"golden" db:"golden"`
	WallRemaining int       `json:"wallRemaining" db:"wall_remaining"`
	StartedAt     time.Time `json:"startedAt" db:"started_at"`
	FinishedAt    time.Time `json:"finishedAt" db:"finished_at"`
}
