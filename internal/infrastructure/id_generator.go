package infrastructure

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateTeamID 生成团队ID
// 格式: team-{10位随机小写字母+数字}
func GenerateTeamID() (string, error) {
	return generateRandomID("team", 10)
}

// GenerateTaskID 生成任务ID
// 格式: task-{10位随机小写字母+数字}
func GenerateTaskID() (string, error) {
	return generateRandomID("task", 10)
}

// GenerateInvitationID 生成邀请ID
// 格式: inv-{10位随机小写字母+数字}
func GenerateInvitationID() (string, error) {
	return generateRandomID("inv", 10)
}

// generateRandomID 生成指定前缀和长度的随机ID
func generateRandomID(prefix string, length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := range b {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		b[i] = charset[num.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(b)), nil
}

// ValidateTeamID 验证团队ID格式
func ValidateTeamID(id string) bool {
	return validateRandomID(id, "team", 10)
}

// ValidateTaskID 验证任务ID格式
func ValidateTaskID(id string) bool {
	return validateRandomID(id, "task", 10)
}

// ValidateInvitationID 验证邀请ID格式
func ValidateInvitationID(id string) bool {
	return validateRandomID(id, "inv", 10)
}

// validateRandomID 验证指定前缀和长度的随机ID格式
func validateRandomID(id, prefix string, length int) bool {
	want := len(prefix) + 1 + length
	if len(id) != want {
		return false
	}
	if id[:len(prefix)+1] != prefix+"-" {
		return false
	}
	// 验证随机部分是否都是小写字母或数字
	for _, c := range id[len(prefix)+1:] {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
