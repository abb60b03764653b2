package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskProcessTransaction = "transactions.process"

// ProcessTransactionPayload carries the raw inbound transaction so the
// worker decodes it exactly as the synchronous endpoint would.
type ProcessTransactionPayload struct {
	TaskID        string          `json:"taskId"`
	TransactionID string          `json:"transactionId"`
	Type          string          `json:"transactionType"`
	Payload       json.RawMessage `json:"payload"`
	ReceivedAt    time.Time       `json:"receivedAt"`
}

func NewProcessTransactionTask(payload ProcessTransactionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessTransaction, data), nil
}

func ParseProcessTransactionPayload(task *asynq.Task) (ProcessTransactionPayload, error) {
	var payload ProcessTransactionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessTransactionPayload{}, err
	}
	return payload, nil
}
