// Package entity defines domain types shared across the application.

package entity

// Notification topics used to tag messages sent to Telegram.
// Log calls tag a record with sl.Topic(entity.TopicXxx).
const (
	TopicPayment = "payment"
	TopicInvoice = "invoice"
	TopicError   = "error"
	TopicSystem  = "system"
)

var allTopics = []string{
	TopicPayment,
	TopicInvoice,
	TopicError,
	TopicSystem,
}

func IsValidTopic(topic string) bool {
	for _, t := range allTopics {
		if t == topic {
			return true
		}
	}
	return false
}

func AllTopics() []string {
	topics := make([]string, len(allTopics))
	copy(topics, allTopics)
	return topics
}
