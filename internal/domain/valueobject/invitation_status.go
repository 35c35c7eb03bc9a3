package valueobject

import "fmt"

// InvitationStatus 邀请状态
// PENDING是唯一的非终态；所有离开PENDING的转移都是条件更新，
// 保证并发下每个邀请至多进入一个终态
type InvitationStatus string

const (
	// InvitationStatusPending 待接受
	InvitationStatusPending InvitationStatus = "PENDING"
	// InvitationStatusAccepted 已接受
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	// InvitationStatusExpired 已过期
	InvitationStatusExpired InvitationStatus = "EXPIRED"
	// InvitationStatusCancelled 已取消
	InvitationStatusCancelled InvitationStatus = "CANCELLED"
)

// String 返回邀请状态的字符串表示
func (s InvitationStatus) String() string {
	return string(s)
}

// IsValid 验证邀请状态是否有效
func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationStatusPending, InvitationStatusAccepted,
		InvitationStatusExpired, InvitationStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal 判断是否为终态
func (s InvitationStatus) IsTerminal() bool {
	return s.IsValid() && s != InvitationStatusPending
}

// ParseInvitationStatus 从字符串解析邀请状态
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	status := InvitationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invitation status: %s", s)
	}
	return status, nil
}
