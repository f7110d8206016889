package web3

import (
	"context"
	"strings"
)

// Verifier 链上校验接口
// 当前为桩实现，真实链交互后续接入
type Verifier interface {
	// IsValidAddress 校验钱包地址格式
	IsValidAddress(address string) bool
	// VerifyQuest 校验钱包是否满足合约任务条件
	VerifyQuest(ctx context.Context, contractAddress, walletAddress string) (bool, error)
	// CompleteQuest 上链记录任务完成，返回交易哈希
	CompleteQuest(ctx context.Context, contractAddress, walletAddress string) (string, error)
	// MintBadge 铸造成就徽章，返回 token ID
	MintBadge(ctx context.Context, walletAddress string) (int64, error)
}

// stubVerifier 桩实现
type stubVerifier struct{}

// NewStub 创建桩校验器
func NewStub() Verifier {
	return &stubVerifier{}
}

// hexDigits 地址除前缀外的合法字符
const hexDigits = "0123456789abcdefABCDEF"

func (s *stubVerifier) IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || len(address) < 3 {
		return false
	}
	for _, r := range address[2:] {
		if !strings.ContainsRune(hexDigits, r) {
			return false
		}
	}
	return true
}

func (s *stubVerifier) VerifyQuest(ctx context.Context, contractAddress, walletAddress string) (bool, error) {
	return true, nil
}

func (s *stubVerifier) CompleteQuest(ctx context.Context, contractAddress, walletAddress string) (string, error) {
	return "0xtransactionhash", nil
}

func (s *stubVerifier) MintBadge(ctx context.Context, walletAddress string) (int64, error) {
	return 1, nil
}
