package upload

import "time"

// FlowStepSpec is the client-declared shape of one approval step, recorded
// on the pending upload and materialized into document.ValidationStep at
// confirmation time.
type FlowStepSpec struct {
	Order    int    `json:"order" bson:"order"`
	Approver string `json:"approver" bson:"approver"`
}

// PendingUpload is an upload session awaiting confirmation. It exists from
// the moment a signed upload URL is issued until the client confirms (the
// session is consumed exactly once) or the session TTL expires. The declared
// metadata is client-supplied and unverified; only object existence is
// checked at confirmation.
type PendingUpload struct {
	Token           string         `json:"token" bson:"_id"`
	Name            string         `json:"name" bson:"name"`
	MimeType        string         `json:"mimeType" bson:"mimeType"`
	Size            int64          `json:"size" bson:"size"`
	FileHash        string         `json:"fileHash,omitempty" bson:"fileHash,omitempty"`
	Bucket          string         `json:"bucket" bson:"bucket"`
	StorageKey      string         `json:"storageKey" bson:"storageKey"`
	Company         string         `json:"company" bson:"company"`
	EntityReference string         `json:"entityReference" bson:"entityReference"`
	CreatedBy       string         `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	FlowSteps       []FlowStepSpec `json:"flowSteps" bson:"flowSteps"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
	ExpiresAt       time.Time      `json:"expiresAt" bson:"expiresAt"`
}
