package server

import (
	"questhub/internal/errors"
	"questhub/internal/server/middleware"

	"github.com/gin-gonic/gin"
)

// connectWalletReq 绑定钱包请求
type connectWalletReq struct {
	Address string `json:"address" binding:"required"`
}

// handleConnectWallet 绑定钱包地址
func (s *Server) handleConnectWallet(c *gin.Context) {
	var req connectWalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errors.ErrBadRequest.WithError(err))
		return
	}
	if !s.web3.IsValidAddress(req.Address) {
		Fail(c, errors.ErrInvalidWallet)
		return
	}

	user, err := s.store.UpdateUserWallet(requestContext(c), middleware.UserID(c), &req.Address)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	Success(c, user)
}

// handleDisconnectWallet 解绑钱包地址
func (s *Server) handleDisconnectWallet(c *gin.Context) {
	user, err := s.store.UpdateUserWallet(requestContext(c), middleware.UserID(c), nil)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	Success(c, user)
}
