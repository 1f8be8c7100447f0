package stripeclient

import (
	"encoding/json"
	"fmt"
)

type stripeErrorRaw struct {
	Status        int    `json:"status"`
	Message       string `json:"message"`
	Type          string `json:"type"`
	RequestID     string `json:"request_id"`
	RequestLogURL string `json:"request_log_url"`
}

// parseErr shortens the JSON body stripe-go puts into its errors
func (s *StripeClient) parseErr(err error) error {
	var se stripeErrorRaw
	if e := json.Unmarshal([]byte(err.Error()), &se); e != nil || se.Message == "" {
		return err
	}
	return fmt.Errorf("status %d: %s", se.Status, se.Message)
}
