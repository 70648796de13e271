package events

// Topic constants for gateway events observed via webhooks.
const (
	TopicTransferProcessed         = "transfer.processed"
	TopicTransferFailed            = "transfer.failed"
	TopicSettlementProcessed       = "settlement.processed"
	TopicProductUnderReview        = "product.route.under_review"
	TopicProductNeedsClarification = "product.route.needs_clarification"
	TopicProductActivated          = "product.route.activated"
)

// DefaultTopics returns the canonical list of webhook topics this service dispatches.
func DefaultTopics() []string {
	return []string{
		TopicTransferProcessed,
		TopicTransferFailed,
		TopicSettlementProcessed,
		TopicProductUnderReview,
		TopicProductNeedsClarification,
		TopicProductActivated,
	}
}
