package respond

// TokenRespond 注册/登录成功响应
type TokenRespond struct {
	Token string `json:"token"`
}
