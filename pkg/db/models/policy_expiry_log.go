package models

import "time"

const (
	// PolicyExpiryLogPolicyIndex is the unique index on policy_id as Postgres reports it.
	PolicyExpiryLogPolicyIndex = "ux_policy_expiry_log_policy_id"
	// PolicyExpiryLogPolicyColumn is how SQLite reports the same constraint.
	PolicyExpiryLogPolicyColumn = "policy_expiry_log.policy_id"
)

// PolicyExpiryLog records that a policy was observed as expired. Rows are
// append-only and there is at most one per policy. A logged policy cannot be
// deleted.
type PolicyExpiryLog struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	PolicyID  int64            `gorm:"column:policy_id;not null;uniqueIndex:ux_policy_expiry_log_policy_id"`
	Policy    *InsurancePolicy `gorm:"foreignKey:PolicyID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (PolicyExpiryLog) TableName() string { return "policy_expiry_log" }
