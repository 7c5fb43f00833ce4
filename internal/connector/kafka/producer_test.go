package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() models.Product {
	return models.Product{
		ASIN:        "B0TEST1234",
		Title:       "Test Product",
		Brand:       "Acme",
		Price:       "₹1,099",
		PriceValue:  1099,
		Rating:      4.3,
		ReviewCount: 12,
		ImageURLs:   models.JSONStringSlice{"https://img.example/1.jpg"},
		SourceURL:   "https://www.amazon.in/dp/B0TEST1234",
		RunID:       "run-1",
		ScrapedAt:   time.Now(),
	}
}

func TestProducer_Send(t *testing.T) {
	mockLogger := logger.NewMockLogger()

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mockProducer := mocks.NewSyncProducer(t, config)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg enrichedMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		assert.Equal(t, "B0TEST1234", msg.ASIN)
		assert.Equal(t, 1099.0, msg.PriceValue)
		return nil
	})

	producer := &KafkaProducer{
		producer: mockProducer,
		topic:    "catalog.enriched",
		logger:   mockLogger,
	}

	err := producer.Send(testProduct())

	assert.NoError(t, err)
	require.Len(t, mockLogger.InfoMessages, 1)
	assert.Contains(t, mockLogger.InfoMessages[0], "Message sent to partition")
	assert.Empty(t, mockLogger.ErrorMessages)

	assert.NoError(t, mockProducer.Close())
}

func TestProducer_SendError(t *testing.T) {
	mockLogger := logger.NewMockLogger()

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mockProducer := mocks.NewSyncProducer(t, config)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrInvalidMessage)

	producer := &KafkaProducer{
		producer: mockProducer,
		topic:    "catalog.enriched",
		logger:   mockLogger,
	}

	err := producer.Send(testProduct())

	assert.Error(t, err)
	assert.Equal(t, sarama.ErrInvalidMessage, err)
	assert.Empty(t, mockLogger.InfoMessages)
	require.Len(t, mockLogger.ErrorMessages, 1)
	assert.Contains(t, mockLogger.ErrorMessages[0], "Failed to send message")

	assert.NoError(t, mockProducer.Close())
}

func TestProducer_SendBatch(t *testing.T) {
	mockLogger := logger.NewMockLogger()

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mockProducer := mocks.NewSyncProducer(t, config)
	mockProducer.ExpectSendMessageAndSucceed()
	mockProducer.ExpectSendMessageAndSucceed()

	producer := &KafkaProducer{
		producer: mockProducer,
		topic:    "catalog.enriched",
		logger:   mockLogger,
	}

	second := testProduct()
	second.ASIN = "B0TEST5678"
	err := producer.SendBatch([]models.Product{testProduct(), second})

	assert.NoError(t, err)
	require.Len(t, mockLogger.InfoMessages, 1)
	assert.Contains(t, mockLogger.InfoMessages[0], "batch of 2")

	assert.NoError(t, mockProducer.Close())
}

func TestProducer_SendBatchEmpty(t *testing.T) {
	producer := &KafkaProducer{topic: "catalog.enriched", logger: logger.NewMockLogger()}
	assert.NoError(t, producer.SendBatch(nil))
}
