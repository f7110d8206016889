package server

import (
	"questhub/internal/errors"
	"questhub/internal/model"
	"questhub/internal/server/middleware"

	"github.com/gin-gonic/gin"
)

// achievementListResp 成就列表响应：全量定义加上当前用户已解锁项
type achievementListResp struct {
	Achievements     []model.Achievement     `json:"achievements"`
	UserAchievements []model.UserAchievement `json:"userAchievements"`
}

// handleListAchievements 成就列表
func (s *Server) handleListAchievements(c *gin.Context) {
	ctx := requestContext(c)

	achievements, err := s.store.GetAllAchievements(ctx)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	userAchievements, err := s.store.GetUserAchievements(ctx, middleware.UserID(c))
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	Success(c, &achievementListResp{
		Achievements:     achievements,
		UserAchievements: userAchievements,
	})
}
