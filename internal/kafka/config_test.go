package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestTopicForEvent(t *testing.T) {
	assert.Equal(t, TopicTransactionRecorded, TopicForEvent(EventTransactionRecorded))
	assert.Equal(t, TopicTransactionStatusChanged, TopicForEvent(EventTransactionStatusChanged))
	assert.Equal(t, TopicPayoutCreated, TopicForEvent(EventPayoutCreated))
	assert.Equal(t, TopicDLQ, TopicForEvent("payment.created"))
}

func TestHeaders(t *testing.T) {
	assert.Nil(t, mapToHeaders(nil))

	headers := mapToHeaders(map[string]string{"correlation_id": "req-1"})
	assert.Equal(t, []kgo.RecordHeader{{Key: "correlation_id", Value: []byte("req-1")}}, headers)
	assert.Equal(t, map[string]string{"correlation_id": "req-1"}, headersToMap(headers))
}
