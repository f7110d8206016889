package model

import "time"

// User 用户
type User struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password      string    `gorm:"size:255;not null" json:"-"`
	WalletAddress *string   `gorm:"size:64" json:"walletAddress"`
	IsAdmin       bool      `gorm:"default:false" json:"isAdmin"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Quest 任务
type Quest struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	Reward          string    `gorm:"size:255;not null" json:"reward"`
	ContractAddress *string   `gorm:"size:64" json:"contractAddress"`
	CreatedBy       int64     `json:"createdBy"`
	IsActive        bool      `gorm:"default:true" json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserQuest 用户任务进度
type UserQuest struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"index;not null" json:"userId"`
	QuestID     int64      `gorm:"index;not null" json:"questId"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	TxHash      *string    `gorm:"size:80" json:"txHash"`
}

// Team 团队
type Team struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	LeaderID    int64     `gorm:"not null" json:"leaderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TeamMember 团队成员
type TeamMember struct {
	ID       int64     `gorm:"primaryKey" json:"id"`
	TeamID   int64     `gorm:"index:idx_team_user;not null" json:"teamId"`
	UserID   int64     `gorm:"index:idx_team_user;not null" json:"userId"`
	Role     string    `gorm:"size:32;default:member" json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// 团队角色
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// Achievement 成就
type Achievement struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// Kind 达成条件类型（quests_completed / teams_joined）
	Kind      string `gorm:"size:32;not null" json:"kind"`
	Threshold int    `gorm:"not null" json:"threshold"`
}

// 成就条件类型
const (
	AchievementQuestsCompleted = "quests_completed"
	AchievementTeamsJoined     = "teams_joined"
)

// UserAchievement 用户已解锁成就
type UserAchievement struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"index:idx_user_achievement;not null" json:"userId"`
	AchievementID int64     `gorm:"index:idx_user_achievement;not null" json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// ChatMessage 团队聊天消息
// 每条已存储的消息必须携带发送者与团队
type ChatMessage struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	SenderID   int64     `gorm:"index;not null" json:"senderId"`
	TeamID     int64     `gorm:"index;not null" json:"teamId"`
	ReceiverID *int64    `json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Type       string    `gorm:"size:32;default:text" json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessageTypeText 默认消息类型
const MessageTypeText = "text"

// All 返回全部模型，用于迁移
func All() []any {
	return []any{
		&User{},
		&Quest{},
		&UserQuest{},
		&Team{},
		&TeamMember{},
		&Achievement{},
		&UserAchievement{},
		&ChatMessage{},
	}
}
