package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"

	"github.com/IBM/sarama"
)

// Producer publishes enriched records to the downstream queue.
type Producer interface {
	Send(product models.Product) error
	SendBatch(products []models.Product) error
	Close() error
}

// enrichedMessage is the wire format published for each record.
type enrichedMessage struct {
	ASIN        string   `json:"asin"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Price       string   `json:"price"`
	PriceValue  float64  `json:"price_value"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	ImageURLs   []string `json:"image_urls"`
	SourceURL   string   `json:"source_url"`
	RunID       string   `json:"run_id"`
	ScrapedAt   string   `json:"scraped_at"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

// NewProducer creates a synchronous Kafka producer for the given brokers
// and topic.
func NewProducer(brokers []string, topic string, log logger.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Infof("Kafka producer created. Brokers: %v, Topic: %s", brokers, topic)

	return &KafkaProducer{
		producer: p,
		topic:    topic,
		logger:   log,
	}, nil
}

func buildMessage(topic string, product models.Product) (*sarama.ProducerMessage, error) {
	jsonData, err := json.Marshal(enrichedMessage{
		ASIN:        product.ASIN,
		Title:       product.Title,
		Brand:       product.Brand,
		Price:       product.Price,
		PriceValue:  product.PriceValue,
		Rating:      product.Rating,
		ReviewCount: product.ReviewCount,
		ImageURLs:   product.ImageURLs,
		SourceURL:   product.SourceURL,
		RunID:       product.RunID,
		ScrapedAt:   product.ScrapedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(product.ASIN),
		Value: sarama.ByteEncoder(jsonData),
		Headers: []sarama.RecordHeader{
			{Key: []byte("marketplace"), Value: []byte("amazon")},
			{Key: []byte("run_id"), Value: []byte(product.RunID)},
			{Key: []byte("timestamp"), Value: []byte(product.ScrapedAt.Format(time.RFC3339))},
		},
	}, nil
}

// Send publishes a single enriched record.
func (p *KafkaProducer) Send(product models.Product) error {
	msg, err := buildMessage(p.topic, product)
	if err != nil {
		p.logger.Errorf("Failed to build message for %s: %v", product.ASIN, err)
		return err
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Errorf("Failed to send message for %s: %v", product.ASIN, err)
		return err
	}

	p.logger.Infof("Message sent to partition %d at offset %d", partition, offset)
	return nil
}

// SendBatch publishes multiple enriched records in one producer call.
func (p *KafkaProducer) SendBatch(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	p.logger.Debugf("Preparing to send batch of %d records", len(products))

	msgs := make([]*sarama.ProducerMessage, 0, len(products))
	for _, product := range products {
		msg, err := buildMessage(p.topic, product)
		if err != nil {
			p.logger.Errorf("Failed to build message for %s: %v", product.ASIN, err)
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.producer.SendMessages(msgs); err != nil {
		p.logger.Errorf("Failed to send batch: %v", err)
		return fmt.Errorf("batch delivery error: %w", err)
	}

	p.logger.Infof("Successfully sent batch of %d records", len(products))
	return nil
}

// Close shuts the producer down, flushing any buffered messages.
func (p *KafkaProducer) Close() error {
	p.logger.Infof("Closing producer...")
	return p.producer.Close()
}
