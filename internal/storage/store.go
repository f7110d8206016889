package storage

import (
	"context"
	"errors"
	"time"

	"questhub/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("storage: record not found")

// Store 数据访问层
type Store struct {
	db *gorm.DB
}

// New 创建 Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate 迁移全部表结构
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(model.All()...)
}

// DB 返回底层 gorm 实例
func (s *Store) DB() *gorm.DB {
	return s.db
}

/*
	用户
*/

// GetUser 按 ID 查询用户
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 按用户名查询用户
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// UpdateUserWallet 更新用户钱包地址（nil 表示解绑）
func (s *Store) UpdateUserWallet(ctx context.Context, userID int64, walletAddress *string) (*model.User, error) {
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("wallet_address", walletAddress).Error; err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

/*
	任务
*/

// GetAllQuests 查询全部任务
func (s *Store) GetAllQuests(ctx context.Context) ([]model.Quest, error) {
	var quests []model.Quest
	if err := s.db.WithContext(ctx).Find(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

// GetQuest 按 ID 查询任务
func (s *Store) GetQuest(ctx context.Context, id int64) (*model.Quest, error) {
	var quest model.Quest
	if err := s.db.WithContext(ctx).First(&quest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quest, nil
}

// CreateQuest 创建任务
func (s *Store) CreateQuest(ctx context.Context, quest *model.Quest) error {
	return s.db.WithContext(ctx).Create(quest).Error
}

// GetUserQuests 查询用户任务进度
func (s *Store) GetUserQuests(ctx context.Context, userID int64) ([]model.UserQuest, error) {
	var userQuests []model.UserQuest
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&userQuests).Error; err != nil {
		return nil, err
	}
	return userQuests, nil
}

// CompleteQuest 记录任务完成
func (s *Store) CompleteQuest(ctx context.Context, userID, questID int64, txHash *string) (*model.UserQuest, error) {
	now := time.Now()
	userQuest := &model.UserQuest{
		UserID:      userID,
		QuestID:     questID,
		Completed:   true,
		CompletedAt: &now,
		TxHash:      txHash,
	}
	if err := s.db.WithContext(ctx).Create(userQuest).Error; err != nil {
		return nil, err
	}
	return userQuest, nil
}

/*
	成就
*/

// GetAllAchievements 查询全部成就
func (s *Store) GetAllAchievements(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	if err := s.db.WithContext(ctx).Find(&achievements).Error; err != nil {
		return nil, err
	}
	return achievements, nil
}

// GetUserAchievements 查询用户已解锁成就
func (s *Store) GetUserAchievements(ctx context.Context, userID int64) ([]model.UserAchievement, error) {
	var unlocked []model.UserAchievement
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&unlocked).Error; err != nil {
		return nil, err
	}
	return unlocked, nil
}

// CheckAndUpdateAchievements 检查并解锁达成条件的成就
// 返回本次新解锁的成就
func (s *Store) CheckAndUpdateAchievements(ctx context.Context, userID int64) ([]model.Achievement, error) {
	achievements, err := s.GetAllAchievements(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned := make(map[int64]bool, len(unlocked))
	for _, ua := range unlocked {
		owned[ua.AchievementID] = true
	}

	var questCount, teamCount int64
	if err := s.db.WithContext(ctx).Model(&model.UserQuest{}).
		Where("user_id = ? AND completed = ?", userID, true).Count(&questCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("user_id = ?", userID).Count(&teamCount).Error; err != nil {
		return nil, err
	}

	var newly []model.Achievement
	for _, a := range achievements {
		if owned[a.ID] {
			continue
		}

		var progress int64
		switch a.Kind {
		case model.AchievementQuestsCompleted:
			progress = questCount
		case model.AchievementTeamsJoined:
			progress = teamCount
		default:
			continue
		}

		if progress >= int64(a.Threshold) {
			ua := &model.UserAchievement{
				UserID:        userID,
				AchievementID: a.ID,
				UnlockedAt:    time.Now(),
			}
			if err := s.db.WithContext(ctx).Create(ua).Error; err != nil {
				return nil, err
			}
			newly = append(newly, a)
		}
	}
	return newly, nil
}

/*
	团队
*/

// CreateTeam 创建团队
func (s *Store) CreateTeam(ctx context.Context, team *model.Team) error {
	return s.db.WithContext(ctx).Create(team).Error
}

// GetTeam 按 ID 查询团队
func (s *Store) GetTeam(ctx context.Context, id int64) (*model.Team, error) {
	var team model.Team
	if err := s.db.WithContext(ctx).First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &team, nil
}

// GetUserTeams 查询用户所属团队
func (s *Store) GetUserTeams(ctx context.Context, userID int64) ([]model.Team, error) {
	var teams []model.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// AddTeamMember 添加团队成员
func (s *Store) AddTeamMember(ctx context.Context, member *model.TeamMember) error {
	return s.db.WithContext(ctx).Create(member).Error
}

// RemoveTeamMember 移除团队成员
func (s *Store) RemoveTeamMember(ctx context.Context, teamID, userID int64) error {
	return s.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&model.TeamMember{}).Error
}

// GetTeamMembers 查询团队成员（每次广播实时读取，不做本地缓存）
func (s *Store) GetTeamMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

/*
	聊天消息
*/

// InsertChatMessage 持久化一条团队聊天消息
func (s *Store) InsertChatMessage(ctx context.Context, senderID, teamID int64, content string) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		SenderID:  senderID,
		TeamID:    teamID,
		Content:   content,
		Type:      model.MessageTypeText,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// GetTeamMessages 查询团队历史消息，按创建时间升序
func (s *Store) GetTeamMessages(ctx context.Context, teamID int64) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
