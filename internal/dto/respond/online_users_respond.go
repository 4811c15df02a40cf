package respond

// OnlineUsersRespond 在线用户列表
type OnlineUsersRespond struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}
