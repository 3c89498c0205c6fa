package document

import "time"

// ValidationStatus values for a document and its flow steps.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidationStep is a single approval step inside a document's flow. Steps
// are embedded in the document and ordered by Order; they are created once
// at confirmation time and only their decision fields change afterwards.
type ValidationStep struct {
	ID         string     `json:"id" bson:"id"`
	Order      int        `json:"order" bson:"order"`
	Approver   string     `json:"approver" bson:"approver"`
	Status     string     `json:"status" bson:"status"`
	Reason     string     `json:"reason,omitempty" bson:"reason,omitempty"`
	ActionDate *time.Time `json:"actionDate,omitempty" bson:"actionDate,omitempty"`
}

// Document is a confirmed upload. StorageKey references an object that was
// verified to exist in the object store at confirmation time; the service
// never re-verifies on read, only when issuing download URLs.
type Document struct {
	ID               string           `json:"id" bson:"_id,omitempty"`
	Name             string           `json:"name" bson:"name"`
	MimeType         string           `json:"mimeType" bson:"mimeType"`
	Size             int64            `json:"size" bson:"size"`
	FileHash         string           `json:"fileHash,omitempty" bson:"fileHash,omitempty"`
	Bucket           string           `json:"bucket" bson:"bucket"`
	StorageKey       string           `json:"storageKey" bson:"storageKey"`
	Company          string           `json:"company" bson:"company"`
	EntityReference  string           `json:"entityReference" bson:"entityReference"`
	CreatedBy        string           `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	ValidationStatus string           `json:"validationStatus" bson:"validationStatus"`
	ValidationFlow   []ValidationStep `json:"validationFlow" bson:"validationFlow"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// Step returns the flow step with the given id, or nil.
func (d *Document) Step(stepID string) *ValidationStep {
	for i := range d.ValidationFlow {
		if d.ValidationFlow[i].ID == stepID {
			return &d.ValidationFlow[i]
		}
	}
	return nil
}

// HasPendingSteps reports whether any flow step is still undecided.
func (d *Document) HasPendingSteps() bool {
	for i := range d.ValidationFlow {
		if d.ValidationFlow[i].Status == StatusPending {
			return true
		}
	}
	return false
}
