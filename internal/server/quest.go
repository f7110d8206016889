package server

import (
	"fmt"
	"strconv"
	"time"

	"questhub/internal/cache"
	"questhub/internal/errors"
	"questhub/internal/model"
	"questhub/internal/server/middleware"
	"questhub/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const questCatalogKey = "quests:catalog"

// questListResp 任务列表响应：全量目录加上当前用户进度
type questListResp struct {
	Quests     []model.Quest     `json:"quests"`
	UserQuests []model.UserQuest `json:"userQuests"`
}

// handleListQuests 任务列表
// 目录走读穿透缓存，用户进度实时查询
func (s *Server) handleListQuests(c *gin.Context) {
	ctx := requestContext(c)

	quests, err := cache.RememberWithLock(ctx, s.cache, questCatalogKey, s.opts.CatalogTTL,
		func() ([]model.Quest, error) {
			return s.store.GetAllQuests(ctx)
		})
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	userQuests, err := s.store.GetUserQuests(ctx, middleware.UserID(c))
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	Success(c, &questListResp{Quests: quests, UserQuests: userQuests})
}

// createQuestReq 创建任务请求
type createQuestReq struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Reward          string  `json:"reward" binding:"required"`
	ContractAddress *string `json:"contractAddress"`
}

// handleCreateQuest 创建任务（管理员）
func (s *Server) handleCreateQuest(c *gin.Context) {
	var req createQuestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errors.ErrBadRequest.WithError(err))
		return
	}
	if req.ContractAddress != nil && !s.web3.IsValidAddress(*req.ContractAddress) {
		Fail(c, errors.ErrInvalidWallet.WithMessage("invalid contract address"))
		return
	}

	quest := &model.Quest{
		Title:           req.Title,
		Description:     req.Description,
		Reward:          req.Reward,
		ContractAddress: req.ContractAddress,
		CreatedBy:       middleware.UserID(c),
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	if err := s.store.CreateQuest(requestContext(c), quest); err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	// 目录已变化，失效缓存
	if err := s.cache.Delete(requestContext(c), questCatalogKey); err != nil {
		s.logger.Warn("invalidate quest catalog failed", zap.Error(err))
	}
	s.cache.Forget(questCatalogKey)

	Created(c, quest)
}

// handleCompleteQuest 完成任务
// 需要已绑定钱包；链上任务先做合约校验，通过后记录交易哈希。
// 完成后检查成就，新解锁的成就实时推送给用户
func (s *Server) handleCompleteQuest(c *gin.Context) {
	ctx := requestContext(c)
	userID := middleware.UserID(c)

	questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Fail(c, errors.ErrBadRequest.WithMessage("invalid quest id"))
		return
	}

	quest, err := s.store.GetQuest(ctx, questID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			Fail(c, errors.ErrNotFound.WithMessage("quest not found"))
			return
		}
		Fail(c, errors.ErrServer.WithError(err))
		return
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		Fail(c, errors.ErrServer.WithError(err))
		return
	}
	if user.WalletAddress == nil {
		Fail(c, errors.ErrWalletRequired)
		return
	}

	var txHash *string
	if quest.ContractAddress != nil {
		verified, err := s.web3.VerifyQuest(ctx, *quest.ContractAddress, *user.WalletAddress)
		if err != nil {
			Fail(c, errors.ErrServer.WithError(err))
			return
		}
		if !verified {
			Fail(c, errors.ErrQuestNotMet)
			return
		}

		hash, err := s.web3.CompleteQuest(ctx, *quest.ContractAddress, *user.WalletAddress)
		if err != nil {
			Fail(c, errors.ErrServer.WithError(err))
			return
		}
		txHash = &hash
	}

	userQuest, err := s.store.CompleteQuest(ctx, userID, questID, txHash)
	if err != nil {
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

	Success(c, userQuest)
}
