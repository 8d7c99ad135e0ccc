package relay

import "context"

// Store 房间成员的镜像（供 HTTP 查询 / 多实例观测），准入判断只看进程内注册表
type Store interface {
	// Add 记录成员加入
	Add(ctx context.Context, roomID, participant string) error
	// Remove 移除成员；房间空了则删除
	Remove(ctx context.Context, roomID, participant string) error
	// Count 返回房间人数
	Count(ctx context.Context, roomID string) (int64, error)
}
