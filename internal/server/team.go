package server

import (
	"fmt"
	"strconv"
	"time"

	"questhub/internal/errors"
	"questhub/internal/model"
	"questhub/internal/server/middleware"
	"questhub/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// createTeamReq 创建团队请求
type createTeamReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// handleCreateTeam 创建团队，创建者自动成为队长
func (s *Server) handleCreateTeam(c *gin.Context) {
	var req createTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errors.ErrBadRequest.WithError(err))
		return
	}

	ctx := requestContext(c)
	userID := middleware.UserID(c)

	team := &model.Team{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    userID,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	member := &model.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     model.RoleLeader,
		JoinedAt: time.Now(),
	}
	if err := s.store.AddTeamMember(ctx, member); err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	Created(c, team)
}

// handleListTeams 当前用户所在的团队列表
func (s *Server) handleListTeams(c *gin.Context) {
	teams, err := s.store.GetUserTeams(requestContext(c), middleware.UserID(c))
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	Success(c, teams)
}

// handleJoinTeam 加入团队
// 入队后检查团队类成就，新解锁项实时推送
func (s *Server) handleJoinTeam(c *gin.Context) {
	ctx := requestContext(c)
	userID := middleware.UserID(c)

	teamID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Fail(c, errors.ErrBadRequest.WithMessage("invalid team id"))
		return
	}

	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			Fail(c, errors.ErrNotFound.WithMessage("team not found"))
			return
		}
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	member := &model.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     model.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.store.AddTeamMember(ctx, member); err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	unlocked, err := s.store.CheckAndUpdateAchievements(ctx, userID)
	if err != nil {
		s.logger.Warn("achievement check failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	for _, achievement := range unlocked {
		s.notifyUser(userID, fmt.Sprintf("Achievement unlocked: %s", achievement.Name))
	}

	Success(c, member)
}

// handleLeaveTeam 退出团队
func (s *Server) handleLeaveTeam(c *gin.Context) {
	teamID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Fail(c, errors.ErrBadRequest.WithMessage("invalid team id"))
		return
	}

	if err := s.store.RemoveTeamMember(requestContext(c), teamID, middleware.UserID(c)); err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	Success(c, nil)
}

// handleTeamMessages 团队消息历史
// 只有团队成员可以读取，按发送时间升序返回
func (s *Server) handleTeamMessages(c *gin.Context) {
	ctx := requestContext(c)
	userID := middleware.UserID(c)

	teamID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Fail(c, errors.ErrBadRequest.WithMessage("invalid team id"))
		return
	}

	members, err := s.store.GetTeamMembers(ctx, teamID)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	isMember := false
	for _, m := range members {
		if m.UserID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		Fail(c, errors.ErrNotTeamMember)
		return
	}

	messages, err := s.store.GetTeamMessages(ctx, teamID)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	Success(c, messages)
}
