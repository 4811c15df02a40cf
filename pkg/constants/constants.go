package constants

const (
	CACHE_WORKER_NUM     = 15           // 缓存 Worker 数量
	CACHE_TASK_BUFFER    = 3000         // 缓存任务缓冲区大小
	CACHE_TTL_MINUTES    = 60           // 用户身份缓存有效期（分钟）
	MAX_MESSAGE_SIZE     = 4096         // 单条 WebSocket 消息最大长度（字节）
	DEFAULT_SWEEP_SPEC   = "@every 1m"  // 会话清理任务默认周期
	USER_ID_KEY_PREFIX   = "user_id:"   // username -> id 缓存前缀
	USER_NAME_KEY_PREFIX = "user_name:" // id -> username 缓存前缀
)
