package valueobject

import "fmt"

// ScopeType 作用域类型
type ScopeType string

const (
	// ScopeTypeOrganization 组织级作用域
	ScopeTypeOrganization ScopeType = "ORGANIZATION"
	// ScopeTypeTeam 团队级作用域
	ScopeTypeTeam ScopeType = "TEAM"
	// ScopeTypeProject 项目级作用域
	ScopeTypeProject ScopeType = "PROJECT"
)

// String 返回作用域类型的字符串表示
func (s ScopeType) String() string {
	return string(s)
}

// IsValid 验证作用域类型是否有效
func (s ScopeType) IsValid() bool {
	switch s {
	case ScopeTypeOrganization, ScopeTypeTeam, ScopeTypeProject:
		return true
	default:
		return false
	}
}

// ParseScopeType 从字符串解析作用域类型
func ParseScopeType(s string) (ScopeType, error) {
	scopeType := ScopeType(s)
	if !scopeType.IsValid() {
		return "", fmt.Errorf("invalid scope type: %s", s)
	}
	return scopeType, nil
}

// GetPriority 获取作用域优先级（数字越大越精确）
// Project(3) > Team(2) > Organization(1)
func (s ScopeType) GetPriority() int {
	switch s {
	case ScopeTypeProject:
		return 3
	case ScopeTypeTeam:
		return 2
	case ScopeTypeOrganization:
		return 1
	default:
		return 0
	}
}

// IsMoreSpecificThan 判断当前作用域是否比目标作用域更精确
func (s ScopeType) IsMoreSpecificThan(target ScopeType) bool {
	return s.GetPriority() > target.GetPriority()
}
