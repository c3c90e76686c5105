package models

import "time"

// ContractType represents how an account is billed for traffic.
type ContractType string

const (
	// ContractTypeFlat represents a fixed traffic quota contract
	ContractTypeFlat ContractType = "flat"
	// ContractTypeSpecific represents metered (pay-per-use) billing with no
	// fixed traffic quota
	ContractTypeSpecific ContractType = "specific"
)

// Account represents a hosting account that owns videos. Access records are
// attributed to accounts through the video's account_id.
//
// Password is stored as an opaque string; encryption and decryption are
// handled by an external component.
type Account struct {
	ID             string       `json:"id" db:"id"`
	CustomerID     *string      `json:"customerId,omitempty" db:"customer_id"`
	Name           string       `json:"name" db:"name"`
	Email          string       `json:"email" db:"email"`
	Password       string       `json:"-" db:"password"`
	ContractType   ContractType `json:"contractType" db:"contract_type"`
	DiskQuota      int64        `json:"diskQuota" db:"disk_quota"`
	TrafficQuota   int64        `json:"trafficQuota" db:"traffic_quota"`
	AvailabledOn   *time.Time   `json:"availabledOn,omitempty" db:"availabled_on"`
	UnavailabledOn *time.Time   `json:"unavailabledOn,omitempty" db:"unavailabled_on"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}
