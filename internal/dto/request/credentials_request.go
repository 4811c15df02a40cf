package request

// CredentialsRequest 注册/登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: Register, Login
type CredentialsRequest struct {
	Username string `json:"username" binding:"required,notblank,max=50"`
	Password string `json:"password" binding:"required,notblank"`
}
