package credential

type CreateReq struct {
	UserId   int64  `json:"-"`
	Name     string `json:"name" binding:"required,max=100"`
	AuthType string `json:"auth_type" binding:"required,oneof=https ssh token"`
	Username string `json:"username" binding:"max=200"`
	Password string `json:"password"`
	Token    string `json:"token"`
	SshKey   string `json:"ssh_key"`
}

type ValidateRes struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}
