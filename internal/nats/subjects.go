package nats

import "strconv"

// NATS Subject 常量定义
const (
	// SubjectLogicUpstream Access -> Logic 上行游戏请求
	SubjectLogicUpstream = "mahjong.logic.upstream"

	// QueueGroupLogic Logic 服务队列组名称
	QueueGroupLogic = "mahjong-logic-group"

	// SubjectAccessDownstreamPrefix Logic -> Access 应答前缀
	// 完整格式: mahjong.access.{node_id}.downstream
	SubjectAccessDownstreamPrefix = "mahjong.access."
	SubjectAccessDownstreamSuffix = ".downstream"

	// SubjectRoomPrefix 房间事件前缀
	// 房间广播: mahjong.room.{room_id}.events
	// 座位私有: mahjong.room.{room_id}.seat.{seat}
	SubjectRoomPrefix = "mahjong.room."
)

// BuildAccessDownstreamSubject 构建 Access 节点下行 Subject
func BuildAccessDownstreamSubject(nodeID string) string {
	return SubjectAccessDownstreamPrefix + nodeID + SubjectAccessDownstreamSuffix
}

// BuildRoomEventsSubject 构建房间广播 Subject
func BuildRoomEventsSubject(roomID string) string {
	return SubjectRoomPrefix + roomID + ".events"
}

// BuildSeatSubject 构建座位私有 Subject
func BuildSeatSubject(roomID string, seat int) string {
	return SubjectRoomPrefix + roomID + ".seat." + strconv.Itoa(seat)
}
