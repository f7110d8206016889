package errors

/*
	内置常用错误码
*/

var (
	// ErrServer 服务器错误
	ErrServer = New(1000, "internal server error", 500)
	// ErrBadRequest 客户端请求错误
	ErrBadRequest = New(1001, "bad request", 400)
	// ErrUnauthorized 未授权
	ErrUnauthorized = New(1002, "unauthorized", 401)
	// ErrForbidden 禁止访问
	ErrForbidden = New(1003, "forbidden", 403)
	// ErrNotFound 资源不存在
	ErrNotFound = New(1004, "not found", 404)

	// ErrInvalidWallet 钱包地址非法
	ErrInvalidWallet = New(2001, "invalid wallet address", 400)
	// ErrWalletRequired 未绑定钱包
	ErrWalletRequired = New(2002, "wallet not connected", 400)
	// ErrQuestNotMet 链上任务条件未达成
	ErrQuestNotMet = New(2003, "quest requirements not met", 400)
	// ErrNotTeamMember 非团队成员
	ErrNotTeamMember = New(2004, "not a team member", 403)
)
