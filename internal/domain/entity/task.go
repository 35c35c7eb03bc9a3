package entity

import (
	"time"

	"task-platform/internal/infrastructure"

	"gorm.io/gorm"
)

// Task 任务实体，归属于唯一一个项目
type Task struct {
	ID          string         `json:"id" gorm:"column:task_id;primaryKey;type:varchar(20)"`
	ProjectID   uint           `json:"project_id" gorm:"index"` // 所属项目ID
	Title       string         `json:"title"`                   // 任务标题
	Description string         `json:"description"`
	OwnerID     string         `json:"owner_id" gorm:"type:varchar(40)"` // 创建人user_id
	AssignedTo  *string        `json:"assigned_to" gorm:"type:varchar(40)"` // 被分配人（必须是项目成员）
	CompletedAt *time.Time     `json:"completed_at"`
	CompletedBy *string        `json:"completed_by" gorm:"type:varchar(40)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// 关联
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName 指定表名
func (Task) TableName() string {
	return "tasks"
}

// BeforeCreate GORM hook - 创建前生成ID
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		id, err := infrastructure.GenerateTaskID()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

// IsValid 验证任务数据是否有效
func (t *Task) IsValid() bool {
	return t.ProjectID > 0 && t.Title != "" && len(t.Title) <= 200 && t.OwnerID != ""
}

// IsCompleted 判断任务是否已完成
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}
